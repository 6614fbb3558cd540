package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
	"github.com/Concave-Streak/WorkflowEngine/pkg/events"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// Definition manages workflow definitions. Definitions are validated as a
// whole machine on creation and are immutable afterwards.
type Definition struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewDefinition creates a new definition service. The publisher may be nil,
// in which case events are skipped.
func NewDefinition(persistence persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Definition {
	return &Definition{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Definition) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates the state machine and persists it. Validation reports
// every violation at once; nothing is stored unless the whole machine is
// consistent.
func (d *Definition) Create(ctx context.Context, name, description string, states []*models.State, actions []*models.Action) (*models.WorkflowDefinition, error) {
	if messages := models.ValidateStateMachine(states, actions); len(messages) > 0 {
		return nil, NewValidationError("CreateDefinition", messages)
	}

	definition := &models.WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		States:      states,
		Actions:     actions,
		CreatedAt:   time.Now().UTC(),
	}

	err := d.persistence.DefinitionRepository().Save(ctx, definition)
	if err != nil {
		return nil, fmt.Errorf("failed to save definition: %w", err)
	}

	d.publish(ctx, definition.ID, events.DefinitionCreated{
		BaseEvent:   events.NewBaseEvent(events.DefinitionCreatedEvent, definition.ID),
		Name:        definition.Name,
		StateCount:  len(definition.States),
		ActionCount: len(definition.Actions),
	})

	return definition, nil
}

// FetchByID returns a definition or a not-found error.
func (d *Definition) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	definition, err := d.persistence.DefinitionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	if definition == nil {
		return nil, persistence.NewDefinitionError("Fetch", id, persistence.ErrDefinitionNotFound)
	}

	return definition, nil
}

// FetchAll returns all definitions ordered by creation time.
func (d *Definition) FetchAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	definitions, err := d.persistence.DefinitionRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	return definitions, nil
}

func (d *Definition) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.publisher == nil {
		return
	}

	err := d.publisher.Publish(ctx, key, event)
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
