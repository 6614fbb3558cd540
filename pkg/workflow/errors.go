// Package workflow implements the state transition rules for workflow
// instances.
package workflow

import (
	"errors"
	"fmt"
)

// Standard transition error types.
var (
	// ErrInvalidTransition indicates an action that is illegal from the
	// instance's current runtime context: the action is disabled, the
	// current state is not one of its source states, the current state is
	// final, or the target state is disabled.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState indicates a referenced state is structurally missing
	// from the definition. Definitions are validated at creation and never
	// mutated, so this signals a data-integrity fault rather than a user
	// error.
	ErrInvalidState = errors.New("invalid state")

	// ErrActionNotFound indicates the requested action id does not exist in
	// the definition.
	ErrActionNotFound = errors.New("action not found in definition")
)

// TransitionError explains why an action could not be executed against an
// instance.
type TransitionError struct {
	InstanceID string // Instance the action was attempted on
	ActionID   string // Requested action
	Reason     string // Human-readable explanation
	Err        error  // ErrInvalidTransition or ErrInvalidState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot execute action %s on instance %s: %s", e.ActionID, e.InstanceID, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func (e *TransitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newTransitionError(instanceID, actionID, reason string, err error) *TransitionError {
	return &TransitionError{
		InstanceID: instanceID,
		ActionID:   actionID,
		Reason:     reason,
		Err:        err,
	}
}

// IsInvalidTransition checks if an error indicates an illegal transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsInvalidState checks if an error indicates a structurally broken
// definition reference.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsActionNotFound checks if an error indicates an unknown action id.
func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}
