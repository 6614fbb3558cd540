package web

import (
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
)

// StateRequest describes one state of a definition being created. Enabled is
// a pointer so an omitted field defaults to true rather than false.
type StateRequest struct {
	ID        string `json:"id"        validate:"required"`
	Name      string `json:"name"      validate:"required"`
	IsInitial bool   `json:"isInitial"`
	IsFinal   bool   `json:"isFinal"`
	Enabled   *bool  `json:"enabled"`
}

// ActionRequest describes one transition rule of a definition being created.
type ActionRequest struct {
	ID         string   `json:"id"         validate:"required"`
	Name       string   `json:"name"       validate:"required"`
	Enabled    *bool    `json:"enabled"`
	FromStates []string `json:"fromStates" validate:"required,min=1"`
	ToState    string   `json:"toState"    validate:"required"`
}

// CreateDefinitionRequest is the payload for creating a workflow definition.
type CreateDefinitionRequest struct {
	Name        string           `json:"name"    validate:"required"`
	Description string           `json:"description"`
	States      []*StateRequest  `json:"states"  validate:"required,min=1,dive"`
	Actions     []*ActionRequest `json:"actions" validate:"dive"`
}

// ToStates converts the request states into domain states.
func (r *CreateDefinitionRequest) ToStates() []*models.State {
	states := make([]*models.State, 0, len(r.States))

	for _, s := range r.States {
		states = append(states, &models.State{
			ID:        s.ID,
			Name:      s.Name,
			IsInitial: s.IsInitial,
			IsFinal:   s.IsFinal,
			Enabled:   enabledOrDefault(s.Enabled),
		})
	}

	return states
}

// ToActions converts the request actions into domain actions.
func (r *CreateDefinitionRequest) ToActions() []*models.Action {
	actions := make([]*models.Action, 0, len(r.Actions))

	for _, a := range r.Actions {
		actions = append(actions, &models.Action{
			ID:         a.ID,
			Name:       a.Name,
			Enabled:    enabledOrDefault(a.Enabled),
			FromStates: a.FromStates,
			ToState:    a.ToState,
		})
	}

	return actions
}

func enabledOrDefault(enabled *bool) bool {
	if enabled == nil {
		return true
	}

	return *enabled
}

// ExecuteActionRequest is the payload for firing an action on an instance.
type ExecuteActionRequest struct {
	ActionID string `json:"actionId" validate:"required"`
}

// CreateScheduleRequest is the payload for attaching a cron schedule to a
// definition.
type CreateScheduleRequest struct {
	CronExpression string `json:"cronExpression" validate:"required"`
}
