package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed field rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// First returns the message of the first failure, or "" when there is none
func (ve ValidationErrors) First() string {
	if len(ve) == 0 {
		return ""
	}
	return ve[0].Message
}

// Validator is the entry point shared by services and handlers
type Validator struct {
	business *BusinessValidator
}

func New() *Validator {
	return &Validator{business: NewBusinessValidator()}
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ValidateStruct runs the struct tags of s, including the custom rules
func (v *Validator) ValidateStruct(s interface{}) ValidationErrors {
	return v.business.Validate(s)
}

// ToValidationErrors converts go-playground errors into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// jsonFieldName reports fields by their JSON name
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio.", fe.Field())
	case "email":
		return "El correo electrónico no es válido."
	case "min":
		return fmt.Sprintf("El campo %s debe tener al menos %s caracteres.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("El campo %s no puede superar %s caracteres.", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("El campo %s debe ser una URL válida.", fe.Field())
	case "course_title":
		return "El título es obligatorio y no puede superar 100 caracteres."
	case "course_description":
		return "La descripción es obligatoria y no puede superar 1000 caracteres."
	case "resource_type":
		return "El tipo de recurso debe ser 'link' o 'file'."
	case "resource_url":
		return "La URL del recurso no es válida."
	case "cum_score":
		return "El CUM debe estar entre 0 y 10."
	case "assignable_role":
		return "Rol no válido."
	case "person_name":
		return "El nombre debe tener al menos 2 caracteres."
	default:
		return fmt.Sprintf("El campo %s no es válido.", fe.Field())
	}
}
