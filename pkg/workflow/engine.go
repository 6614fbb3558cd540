package workflow

import (
	"fmt"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
)

// NewInstance creates a fresh instance of the given definition, positioned
// at its initial state with empty history.
//
// Validated definitions always carry exactly one initial state. A definition
// that reached storage without passing validation can miss one; that case
// fails with ErrInvalidState instead of panicking.
func NewInstance(id string, definition *models.WorkflowDefinition) (*models.WorkflowInstance, error) {
	initial := definition.InitialState()
	if initial == nil {
		return nil, fmt.Errorf("definition %s has no initial state: %w", definition.ID, ErrInvalidState)
	}

	return &models.WorkflowInstance{
		ID:             id,
		DefinitionID:   definition.ID,
		CurrentStateID: initial.ID,
		CreatedAt:      time.Now().UTC(),
		History:        make([]*models.HistoryEntry, 0),
	}, nil
}

// ExecuteTransition applies the action with the given id to the instance.
//
// Legality checks run in order and stop at the first failure: the action
// must be enabled, it must be executable from the instance's current state,
// the current state must not be final, and the target state must exist and
// be enabled. Only when every check passes does the instance mutate: its
// current state moves to the action's target and a history entry recording
// the transition is appended. The two writes form a single logical step;
// no failure path leaves a partial mutation behind. The appended entry is
// returned.
func ExecuteTransition(definition *models.WorkflowDefinition, instance *models.WorkflowInstance, actionID string) (*models.HistoryEntry, error) {
	action := definition.ActionByID(actionID)
	if action == nil {
		return nil, fmt.Errorf("action %s not found in definition %s: %w", actionID, definition.ID, ErrActionNotFound)
	}

	if !action.Enabled {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("action '%s' is disabled", action.ID), ErrInvalidTransition)
	}

	if !action.ExecutableFrom(instance.CurrentStateID) {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("action '%s' is not executable from current state '%s'", action.ID, instance.CurrentStateID), ErrInvalidTransition)
	}

	currentState := definition.StateByID(instance.CurrentStateID)
	if currentState == nil {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("current state '%s' is missing from the definition", instance.CurrentStateID), ErrInvalidState)
	}

	if currentState.IsFinal {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("cannot act on a final state '%s'", currentState.ID), ErrInvalidTransition)
	}

	targetState := definition.StateByID(action.ToState)
	if targetState == nil {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("target state '%s' is missing from the definition", action.ToState), ErrInvalidState)
	}

	if !targetState.Enabled {
		return nil, newTransitionError(instance.ID, actionID,
			fmt.Sprintf("target state '%s' is disabled", targetState.ID), ErrInvalidTransition)
	}

	entry := &models.HistoryEntry{
		ActionID:    action.ID,
		FromStateID: instance.CurrentStateID,
		ToStateID:   targetState.ID,
		ExecutedAt:  time.Now().UTC(),
	}

	instance.CurrentStateID = targetState.ID
	instance.History = append(instance.History, entry)

	return entry, nil
}
