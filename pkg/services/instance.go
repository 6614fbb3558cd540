package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
	"github.com/Concave-Streak/WorkflowEngine/pkg/events"
	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/workflow"
)

// Instance manages workflow instances: starting them and walking them
// through the state machine.
type Instance struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	guard       *locks.Guard
	logger      *slog.Logger
}

// NewInstance creates a new instance service. The guard serializes action
// execution per instance so concurrent requests cannot both act on the same
// observed state.
func NewInstance(persistence persistence.Persistence, publisher eventbus.EventPublisher, guard *locks.Guard, logger *slog.Logger) *Instance {
	return &Instance{
		persistence: persistence,
		publisher:   publisher,
		guard:       guard,
		logger:      logger,
	}
}

// Start creates a new instance of a definition at its initial state.
func (s *Instance) Start(ctx context.Context, definitionID string) (*models.WorkflowInstance, error) {
	definition, err := s.persistence.DefinitionRepository().GetByID(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	if definition == nil {
		return nil, persistence.NewDefinitionError("StartInstance", definitionID, persistence.ErrDefinitionNotFound)
	}

	instance, err := workflow.NewInstance(uuid.New().String(), definition)
	if err != nil {
		return nil, err
	}

	err = s.persistence.InstanceRepository().Save(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	s.publish(ctx, instance.ID, events.InstanceStarted{
		BaseEvent:      events.NewBaseEvent(events.InstanceStartedEvent, definition.ID),
		InstanceID:     instance.ID,
		CurrentStateID: instance.CurrentStateID,
	})

	return instance, nil
}

// ExecuteAction applies an action to an instance and returns the updated
// instance. The instance and definition are resolved without any lock; the
// transition check, mutation and persist run under the per-instance guard
// against a reloaded copy, so two concurrent requests cannot both act on the
// same observed state.
func (s *Instance) ExecuteAction(ctx context.Context, instanceID, actionID string) (*models.WorkflowInstance, error) {
	instance, err := s.persistence.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance: %w", err)
	}

	if instance == nil {
		return nil, persistence.NewInstanceError("ExecuteAction", instanceID, persistence.ErrInstanceNotFound)
	}

	definition, err := s.persistence.DefinitionRepository().GetByID(ctx, instance.DefinitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	if definition == nil {
		return nil, persistence.NewDefinitionError("ExecuteAction", instance.DefinitionID, persistence.ErrDefinitionNotFound)
	}

	var updated *models.WorkflowInstance

	err = s.guard.WithLock(ctx, instanceID, func(ctx context.Context) error {
		current, err := s.persistence.InstanceRepository().GetByID(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("failed to reload instance: %w", err)
		}

		if current == nil {
			return persistence.NewInstanceError("ExecuteAction", instanceID, persistence.ErrInstanceNotFound)
		}

		entry, err := workflow.ExecuteTransition(definition, current, actionID)
		if err != nil {
			return err
		}

		err = s.persistence.InstanceRepository().Update(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to persist transition: %w", err)
		}

		updated = current

		s.publish(ctx, current.ID, events.TransitionExecuted{
			BaseEvent:   events.NewBaseEvent(events.TransitionExecutedEvent, definition.ID),
			InstanceID:  current.ID,
			ActionID:    entry.ActionID,
			FromStateID: entry.FromStateID,
			ToStateID:   entry.ToStateID,
			ExecutedAt:  entry.ExecutedAt,
		})

		return nil
	})
	if err != nil {
		// Rejected transitions are observable events; failed lookups are not.
		if workflow.IsInvalidTransition(err) || workflow.IsInvalidState(err) {
			s.publish(ctx, instanceID, events.TransitionFailed{
				BaseEvent:  events.NewBaseEvent(events.TransitionFailedEvent, definition.ID),
				InstanceID: instanceID,
				ActionID:   actionID,
				Error:      err.Error(),
			})
		}

		return nil, err
	}

	return updated, nil
}

// FetchByID returns an instance or a not-found error.
func (s *Instance) FetchByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	instance, err := s.persistence.InstanceRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance: %w", err)
	}

	if instance == nil {
		return nil, persistence.NewInstanceError("Fetch", id, persistence.ErrInstanceNotFound)
	}

	return instance, nil
}

// FetchAll returns instances ordered by creation time, optionally filtered
// by definition.
func (s *Instance) FetchAll(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	var (
		instances []*models.WorkflowInstance
		err       error
	)

	if definitionID != "" {
		instances, err = s.persistence.InstanceRepository().GetByDefinitionID(ctx, definitionID)
	} else {
		instances, err = s.persistence.InstanceRepository().GetAll(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	return instances, nil
}

func (s *Instance) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
