// Package memory provides an in-memory persistence implementation. It is
// the default backend and the one unit tests run against.
package memory

import (
	"context"
	"slices"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface with maps.
type Persistence struct {
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence creates an empty in-memory persistence.
func NewPersistence() persistence.Persistence {
	return &Persistence{
		definitionRepo: NewDefinitionRepository(),
		instanceRepo:   NewInstanceRepository(),
		scheduleRepo:   NewScheduleRepository(),
	}
}

func (mp *Persistence) DefinitionRepository() persistence.DefinitionRepository {
	return mp.definitionRepo
}

func (mp *Persistence) InstanceRepository() persistence.InstanceRepository {
	return mp.instanceRepo
}

func (mp *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return mp.scheduleRepo
}

// HealthCheck always succeeds for the in-memory backend.
func (mp *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (mp *Persistence) Close(_ context.Context) error {
	return nil
}

// The repositories hand out copies so callers can mutate results without
// racing with the store.

func cloneDefinition(definition *models.WorkflowDefinition) *models.WorkflowDefinition {
	cp := *definition

	cp.States = make([]*models.State, len(definition.States))
	for i, state := range definition.States {
		stateCopy := *state
		cp.States[i] = &stateCopy
	}

	cp.Actions = make([]*models.Action, len(definition.Actions))
	for i, action := range definition.Actions {
		actionCopy := *action
		actionCopy.FromStates = slices.Clone(action.FromStates)
		cp.Actions[i] = &actionCopy
	}

	return &cp
}

func cloneInstance(instance *models.WorkflowInstance) *models.WorkflowInstance {
	cp := *instance

	cp.History = make([]*models.HistoryEntry, len(instance.History))
	for i, entry := range instance.History {
		entryCopy := *entry
		cp.History[i] = &entryCopy
	}

	return &cp
}

func cloneSchedule(schedule *models.Schedule) *models.Schedule {
	cp := *schedule

	return &cp
}
