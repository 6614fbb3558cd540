package models

import "time"

// WorkflowInstance is one execution of a WorkflowDefinition. It references
// its definition by id, tracks the current state, and records every
// executed transition in an append-only history.
type WorkflowInstance struct {
	ID             string          `json:"id"`
	DefinitionID   string          `json:"definitionId"   validate:"required"`
	CurrentStateID string          `json:"currentStateId"`
	CreatedAt      time.Time       `json:"createdAt"`
	History        []*HistoryEntry `json:"history"`
}

// HistoryEntry records one executed transition. Entries are immutable once
// appended.
type HistoryEntry struct {
	ActionID    string    `json:"actionId"`
	FromStateID string    `json:"fromStateId"`
	ToStateID   string    `json:"toStateId"`
	ExecutedAt  time.Time `json:"executedAt"`
}

// LastHistoryEntry returns the most recent transition, or nil for an
// instance that has not executed any action yet.
func (i *WorkflowInstance) LastHistoryEntry() *HistoryEntry {
	if len(i.History) == 0 {
		return nil
	}

	return i.History[len(i.History)-1]
}
