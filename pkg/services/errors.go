// Package services implements the orchestration layer between transports and
// the workflow engine: validation, persistence, per-instance locking and
// event publishing.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/workflow"
)

// ErrValidationFailed marks definition and schedule payloads that were
// rejected before anything was persisted.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError carries the full list of accumulated validation messages
// so transports can return them all at once.
type ValidationError struct {
	Op       string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error with accumulated messages.
func NewValidationError(op string, messages []string) *ValidationError {
	return &ValidationError{Op: op, Messages: messages}
}

// IsValidationFailed checks if an error is a validation failure that should
// return HTTP 400.
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNotFound checks if an error reports a missing definition, instance,
// schedule or action, all of which map to HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, persistence.ErrDefinitionNotFound) ||
		errors.Is(err, persistence.ErrInstanceNotFound) ||
		errors.Is(err, persistence.ErrScheduleNotFound) ||
		errors.Is(err, workflow.ErrActionNotFound)
}

// IsInvalidTransition checks if an error reports an action rejected by the
// transition rules, which maps to HTTP 422.
func IsInvalidTransition(err error) bool {
	return workflow.IsInvalidTransition(err)
}

// IsInvalidState checks if an error reports definition data that lost its
// internal consistency, which maps to HTTP 500.
func IsInvalidState(err error) bool {
	return workflow.IsInvalidState(err)
}
