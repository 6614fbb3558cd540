// Package models defines the core domain models for configurable
// finite-state workflows.
package models

import (
	"slices"
	"time"
)

// State is a single node of a workflow state machine.
type State struct {
	ID        string `json:"id"        validate:"required"`
	Name      string `json:"name"      validate:"required"`
	IsInitial bool   `json:"isInitial"`
	IsFinal   bool   `json:"isFinal"`
	Enabled   bool   `json:"enabled"`
}

// Action is a transition rule: it may fire from any state in FromStates
// and always lands on ToState.
type Action struct {
	ID         string   `json:"id"         validate:"required"`
	Name       string   `json:"name"       validate:"required"`
	Enabled    bool     `json:"enabled"`
	FromStates []string `json:"fromStates"`
	ToState    string   `json:"toState"    validate:"required"`
}

// ExecutableFrom reports whether the action may fire from the given state.
func (a *Action) ExecutableFrom(stateID string) bool {
	return slices.Contains(a.FromStates, stateID)
}

// WorkflowDefinition is a complete state machine: states plus the actions
// that move between them. Definitions are immutable once created (no update,
// no delete), so a definition that passed validation at creation time stays
// mutually consistent for its whole lifetime: state ids are unique, exactly
// one state is initial, and every action references only declared states.
// Code that resolves states or actions inside a validated definition may
// treat a failed lookup as a data-integrity fault rather than a user error.
type WorkflowDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description"`
	States      []*State  `json:"states"`
	Actions     []*Action `json:"actions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StateByID returns the state with the given id, or nil.
func (w *WorkflowDefinition) StateByID(id string) *State {
	for _, s := range w.States {
		if s.ID == id {
			return s
		}
	}

	return nil
}

// ActionByID returns the action with the given id, or nil.
func (w *WorkflowDefinition) ActionByID(id string) *Action {
	for _, a := range w.Actions {
		if a.ID == id {
			return a
		}
	}

	return nil
}

// InitialState returns the state marked as initial, or nil if the
// definition has none.
func (w *WorkflowDefinition) InitialState() *State {
	for _, s := range w.States {
		if s.IsInitial {
			return s
		}
	}

	return nil
}
