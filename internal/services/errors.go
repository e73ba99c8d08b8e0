package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/validator"
)

// Sentinels every typed service error unwraps to
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidationFailed = errors.New("validation failed")
)

// NotFoundError reports a missing resource with a user-facing message
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func NewNotFoundError(resource, id, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Message: message}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BusinessRuleError is a request that is well formed but conflicts with the
// current state
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func (e *BusinessRuleError) Unwrap() error {
	return ErrConflict
}

type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Message    string
}

func NewPermissionError(userID, resourceID, resource, action, message string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Message:    message,
	}
}

func (e *PermissionError) Error() string {
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

type AuthenticationError struct {
	Message string
}

func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return ErrUnauthorized
}

// ValidationError carries field failures; Message is what the client sees
type ValidationError struct {
	Message string
	Errors  validator.ValidationErrors
}

func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	message := errs.First()
	if message == "" {
		message = "Datos inválidos."
	}
	return &ValidationError{Message: message, Errors: errs}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationFailed, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
