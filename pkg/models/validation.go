package models

import "fmt"

// ValidateStateMachine checks that the given states and actions form a legal
// state machine and returns every violation found, as human-readable
// messages. An empty result means the machine is well-formed.
//
// All checks run in one pass and accumulate, so a malformed definition
// reports every problem at once and a client can fix it in a single round
// trip:
//
//  1. state ids must be unique (one message per duplicated id)
//  2. action ids must be unique (one message per duplicated id)
//  3. exactly one state must be marked initial
//  4. every action's target and source states must be declared states
//
// Messages are not deduplicated: two actions referencing the same missing
// state each produce their own message.
func ValidateStateMachine(states []*State, actions []*Action) []string {
	var errs []string

	stateCounts := make(map[string]int, len(states))
	for _, s := range states {
		stateCounts[s.ID]++
	}

	reported := make(map[string]bool, len(states))

	for _, s := range states {
		if stateCounts[s.ID] > 1 && !reported[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate state id '%s'", s.ID))
			reported[s.ID] = true
		}
	}

	actionCounts := make(map[string]int, len(actions))
	for _, a := range actions {
		actionCounts[a.ID]++
	}

	reportedActions := make(map[string]bool, len(actions))

	for _, a := range actions {
		if actionCounts[a.ID] > 1 && !reportedActions[a.ID] {
			errs = append(errs, fmt.Sprintf("duplicate action id '%s'", a.ID))
			reportedActions[a.ID] = true
		}
	}

	initialCount := 0

	for _, s := range states {
		if s.IsInitial {
			initialCount++
		}
	}

	switch {
	case initialCount == 0:
		errs = append(errs, "definition must have exactly one initial state")
	case initialCount > 1:
		errs = append(errs, fmt.Sprintf("definition must have exactly one initial state, found %d", initialCount))
	}

	for _, a := range actions {
		if _, ok := stateCounts[a.ToState]; !ok {
			errs = append(errs, fmt.Sprintf("action '%s' references unknown target state '%s'", a.ID, a.ToState))
		}

		for _, from := range a.FromStates {
			if _, ok := stateCounts[from]; !ok {
				errs = append(errs, fmt.Sprintf("action '%s' references unknown source state '%s'", a.ID, from))
			}
		}
	}

	return errs
}

// Validate checks the definition's states and actions with
// ValidateStateMachine.
func (w *WorkflowDefinition) Validate() []string {
	return ValidateStateMachine(w.States, w.Actions)
}
