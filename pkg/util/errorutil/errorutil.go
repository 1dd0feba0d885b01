package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidReference     = "INVALID_REFERENCE"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeConstraintViolation  = "CONSTRAINT_VIOLATION"
	CodeActionNotAllowed     = "ACTION_NOT_ALLOWED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidReference reports a malformed identifier.
func NewInvalidReference(field, value string) error {
	return NewDomainError(CodeInvalidReference, fmt.Sprintf("invalid %s", field), http.StatusBadRequest, map[string]any{
		"field": field,
		"value": value,
	})
}

// NewInvalidTransition reports a status change the transition table does not allow.
func NewInvalidTransition(from, to string, allowed []string) error {
	if allowed == nil {
		allowed = []string{}
	}
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot change status from %q to %q", from, to),
		http.StatusUnprocessableEntity,
		map[string]any{
			"from":    from,
			"to":      to,
			"allowed": allowed,
		})
}

// NewMissingRequiredFields reports transition data that was not supplied.
func NewMissingRequiredFields(from, to string, fields []string) error {
	return NewDomainError(CodeMissingRequiredField,
		fmt.Sprintf("fields required for this transition: %s", strings.Join(fields, ", ")),
		http.StatusUnprocessableEntity,
		map[string]any{
			"from":   from,
			"to":     to,
			"fields": fields,
		})
}

func NewConstraintViolation(message string, details map[string]any) error {
	return NewDomainError(CodeConstraintViolation, message, http.StatusConflict, details)
}

// NewActionNotAllowed reports an action the current status does not permit.
func NewActionNotAllowed(action, status string) error {
	return NewDomainError(CodeActionNotAllowed,
		fmt.Sprintf("action %q is not allowed in status %q", action, status),
		http.StatusConflict,
		map[string]any{
			"action": action,
			"status": status,
		})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &DomainError{
			Code:       CodeNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Details:    map[string]any{},
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
