package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/course-service/internal/models"
)

var resourceURLPattern = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

const (
	maxCourseTitle       = 100
	maxCourseDescription = 1000
	minCum               = 0.0
	maxCum               = 10.0
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *models.CreateCourseRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	for i, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tags[%d]", i),
				Message: "Las etiquetas no pueden estar vacías.",
				Value:   tag,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateSection validates a section appended to an existing course
func (bv *BusinessValidator) ValidateSection(req *models.SectionRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if strings.TrimSpace(req.Title) == "" && len(errors) == 0 {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: "El campo title es obligatorio.",
			Value:   req.Title,
			Rule:    "required",
		})
	}

	return errors
}

// ValidateRoleRequestTransition checks a role request status change against
// models.RoleRequestTransitions
func (bv *BusinessValidator) ValidateRoleRequestTransition(current, next models.RoleRequestStatus) ValidationErrors {
	if current.CanTransitionTo(next) {
		return nil
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return title != "" && utf8.RuneCountInString(title) <= maxCourseTitle
	})

	bv.validate.RegisterValidation("course_description", func(fl validator.FieldLevel) bool {
		desc := strings.TrimSpace(fl.Field().String())
		return desc != "" && utf8.RuneCountInString(desc) <= maxCourseDescription
	})

	bv.validate.RegisterValidation("resource_type", func(fl validator.FieldLevel) bool {
		switch models.ResourceType(fl.Field().String()) {
		case models.ResourceLink, models.ResourceFile:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("resource_url", func(fl validator.FieldLevel) bool {
		return resourceURLPattern.MatchString(fl.Field().String())
	})

	// CUM accepts float or *float64 fields
	bv.validate.RegisterValidation("cum_score", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return false
			}
			field = field.Elem()
		}
		if field.Kind() != reflect.Float64 && field.Kind() != reflect.Float32 {
			return false
		}
		cum := field.Float()
		return cum >= minCum && cum <= maxCum
	})

	bv.validate.RegisterValidation("assignable_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsAssignable()
	})

	bv.validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= 2
	})
}
