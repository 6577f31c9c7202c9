package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateSubmission = errors.New("submission already exists for this assignment")
	ErrAssignmentFrozen    = errors.New("assignment has submissions and can no longer be modified")
	ErrAssignmentInactive  = errors.New("assignment is not active")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// ===== TYPED ERRORS =====

// ValidationError reports a business-rule violation on a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PermissionError reports an operation the caller is not allowed to perform.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPermissionError reports whether err is (or wraps) a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
