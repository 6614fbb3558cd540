// Package testutil provides test data builders shared across test packages.
package testutil

import (
	"github.com/google/uuid"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
)

// ApprovalDefinition builds the canonical three-state approval machine:
// pending (initial) -> approved -> completed (final), with actions
// "approve" and "complete". Overrides run after the defaults are set.
func ApprovalDefinition(overrides ...func(*models.WorkflowDefinition)) *models.WorkflowDefinition {
	definition := &models.WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        "Approval Workflow",
		Description: "Three step approval flow",
		States: []*models.State{
			{ID: "pending", Name: "Pending", IsInitial: true, Enabled: true},
			{ID: "approved", Name: "Approved", Enabled: true},
			{ID: "completed", Name: "Completed", IsFinal: true, Enabled: true},
		},
		Actions: []*models.Action{
			{ID: "approve", Name: "Approve", Enabled: true, FromStates: []string{"pending"}, ToState: "approved"},
			{ID: "complete", Name: "Complete", Enabled: true, FromStates: []string{"approved"}, ToState: "completed"},
		},
	}

	for _, override := range overrides {
		override(definition)
	}

	return definition
}

// WithStates replaces the definition states.
func WithStates(states ...*models.State) func(*models.WorkflowDefinition) {
	return func(w *models.WorkflowDefinition) {
		w.States = states
	}
}

// WithActions replaces the definition actions.
func WithActions(actions ...*models.Action) func(*models.WorkflowDefinition) {
	return func(w *models.WorkflowDefinition) {
		w.Actions = actions
	}
}

// WithDefinitionID sets the definition id.
func WithDefinitionID(id string) func(*models.WorkflowDefinition) {
	return func(w *models.WorkflowDefinition) {
		w.ID = id
	}
}
