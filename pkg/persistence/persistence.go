// Package persistence provides the data storage abstraction layer for
// workflow definitions, instances, and schedules.
package persistence

import (
	"context"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
)

// Persistence aggregates the repositories of one storage backend.
type Persistence interface {
	DefinitionRepository() DefinitionRepository
	InstanceRepository() InstanceRepository
	ScheduleRepository() ScheduleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// DefinitionRepository stores workflow definitions. Definitions are
// write-once: no update or delete exists, so readers never need
// coordination with writers.
type DefinitionRepository interface {
	// Save persists a new definition. It fails with
	// ErrDefinitionAlreadyExists when the id is already taken.
	Save(ctx context.Context, definition *models.WorkflowDefinition) error

	// GetByID returns (nil, nil) when no definition has the given id.
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)

	GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error)
}

// InstanceRepository stores workflow instances.
type InstanceRepository interface {
	// Save persists a new instance. It fails with
	// ErrInstanceAlreadyExists when the id is already taken.
	Save(ctx context.Context, instance *models.WorkflowInstance) error

	// Update overwrites an existing instance. It fails with
	// ErrInstanceNotFound when the instance does not exist.
	Update(ctx context.Context, instance *models.WorkflowInstance) error

	// GetByID returns (nil, nil) when no instance has the given id.
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)

	GetAll(ctx context.Context) ([]*models.WorkflowInstance, error)

	GetByDefinitionID(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error)
}

// ScheduleRepository stores cron schedules for automatic instance starts.
type ScheduleRepository interface {
	// Save persists a new schedule. It fails with
	// ErrScheduleAlreadyExists when the id is already taken.
	Save(ctx context.Context, schedule *models.Schedule) error

	// Update overwrites an existing schedule. It fails with
	// ErrScheduleNotFound when the schedule does not exist.
	Update(ctx context.Context, schedule *models.Schedule) error

	// GetByID returns (nil, nil) when no schedule has the given id.
	GetByID(ctx context.Context, id string) (*models.Schedule, error)

	GetAll(ctx context.Context) ([]*models.Schedule, error)

	// DueSchedules returns all active schedules whose next due time is not
	// after the given time.
	DueSchedules(ctx context.Context, before time.Time) ([]*models.Schedule, error)

	Delete(ctx context.Context, id string) error
}
