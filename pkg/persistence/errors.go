// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDefinitionNotFound indicates a workflow definition was not found by the given identifier.
	ErrDefinitionNotFound = errors.New("workflow definition not found")

	// ErrDefinitionAlreadyExists indicates a workflow definition with the same identifier already exists.
	ErrDefinitionAlreadyExists = errors.New("workflow definition already exists")

	// ErrInstanceNotFound indicates a workflow instance was not found by the given identifier.
	ErrInstanceNotFound = errors.New("workflow instance not found")

	// ErrInstanceAlreadyExists indicates a workflow instance with the same identifier already exists.
	ErrInstanceAlreadyExists = errors.New("workflow instance already exists")

	// ErrScheduleNotFound indicates a schedule was not found by the given identifier.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrScheduleAlreadyExists indicates a schedule with the same identifier already exists.
	ErrScheduleAlreadyExists = errors.New("schedule already exists")
)

// DefinitionError wraps definition-related storage errors with context.
type DefinitionError struct {
	Op           string // Operation being performed (e.g. "GetByID", "Save")
	DefinitionID string // Definition ID if applicable
	Err          error  // Underlying error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s operation failed for definition %s: %v", e.Op, e.DefinitionID, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func (e *DefinitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDefinitionError creates a new definition storage error with context.
func NewDefinitionError(op, definitionID string, err error) *DefinitionError {
	return &DefinitionError{
		Op:           op,
		DefinitionID: definitionID,
		Err:          err,
	}
}

// InstanceError wraps instance-related storage errors with context.
type InstanceError struct {
	Op         string // Operation being performed
	InstanceID string // Instance ID if applicable
	Err        error  // Underlying error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s operation failed for instance %s: %v", e.Op, e.InstanceID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

func (e *InstanceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInstanceError creates a new instance storage error with context.
func NewInstanceError(op, instanceID string, err error) *InstanceError {
	return &InstanceError{
		Op:         op,
		InstanceID: instanceID,
		Err:        err,
	}
}

// ScheduleError wraps schedule-related storage errors with context.
type ScheduleError struct {
	Op         string // Operation being performed
	ScheduleID string // Schedule ID if applicable
	Err        error  // Underlying error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%s operation failed for schedule %s: %v", e.Op, e.ScheduleID, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

func (e *ScheduleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewScheduleError creates a new schedule storage error with context.
func NewScheduleError(op, scheduleID string, err error) *ScheduleError {
	return &ScheduleError{
		Op:         op,
		ScheduleID: scheduleID,
		Err:        err,
	}
}

// IsDefinitionNotFound checks if an error indicates a definition was not found.
func IsDefinitionNotFound(err error) bool {
	return errors.Is(err, ErrDefinitionNotFound)
}

// IsDefinitionAlreadyExists checks if an error indicates a duplicate definition id.
func IsDefinitionAlreadyExists(err error) bool {
	return errors.Is(err, ErrDefinitionAlreadyExists)
}

// IsInstanceNotFound checks if an error indicates an instance was not found.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsInstanceAlreadyExists checks if an error indicates a duplicate instance id.
func IsInstanceAlreadyExists(err error) bool {
	return errors.Is(err, ErrInstanceAlreadyExists)
}

// IsScheduleNotFound checks if an error indicates a schedule was not found.
func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}
