package service

import (
	"errors"
	"fmt"

	"github.com/garyjia/hr-approvals/internal/domain/workflow"
)

// ValidationError reports malformed input or a missing required reference
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// AuthorizationError reports an actor that is not the assigned approver
type AuthorizationError struct {
	ActorID int64
	Message string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %d not authorized: %s", e.ActorID, e.Message)
}

// InvalidStateError reports an operation attempted from the wrong status,
// including losing a race against a concurrent transition.
type InvalidStateError struct {
	RequestID int64
	Status    workflow.State
	Operation string
}

func (e *InvalidStateError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("cannot %s request %d: status changed concurrently", e.Operation, e.RequestID)
	}
	return fmt.Sprintf("cannot %s request %d in status %s", e.Operation, e.RequestID, e.Status)
}

// NotFoundError reports an unknown request ID
type NotFoundError struct {
	RequestID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("request %d not found", e.RequestID)
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err wraps an AuthorizationError
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err wraps an InvalidStateError
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
