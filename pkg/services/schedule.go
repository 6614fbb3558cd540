package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// Schedule manages cron schedules that start instances of a definition.
type Schedule struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewSchedule creates a new schedule service.
func NewSchedule(persistence persistence.Persistence, logger *slog.Logger) *Schedule {
	return &Schedule{
		persistence: persistence,
		logger:      logger,
	}
}

// Create validates the cron expression, verifies the definition exists and
// persists the schedule with its next due time precomputed.
func (s *Schedule) Create(ctx context.Context, definitionID, cronExpression string) (*models.Schedule, error) {
	definition, err := s.persistence.DefinitionRepository().GetByID(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	if definition == nil {
		return nil, persistence.NewDefinitionError("CreateSchedule", definitionID, persistence.ErrDefinitionNotFound)
	}

	schedule, err := models.NewSchedule(uuid.New().String(), definitionID, cronExpression)
	if err != nil {
		return nil, NewValidationError("CreateSchedule", []string{
			fmt.Sprintf("invalid cron expression '%s': %v", cronExpression, err),
		})
	}

	err = s.persistence.ScheduleRepository().Save(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	return schedule, nil
}

// FetchByID returns a schedule or a not-found error.
func (s *Schedule) FetchByID(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.persistence.ScheduleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	if schedule == nil {
		return nil, persistence.NewScheduleError("Fetch", id, persistence.ErrScheduleNotFound)
	}

	return schedule, nil
}

// FetchAll returns all schedules ordered by next due time.
func (s *Schedule) FetchAll(ctx context.Context) ([]*models.Schedule, error) {
	schedules, err := s.persistence.ScheduleRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, nil
}

// Due returns active schedules due at or before the given instant.
func (s *Schedule) Due(ctx context.Context, before time.Time) ([]*models.Schedule, error) {
	schedules, err := s.persistence.ScheduleRepository().DueSchedules(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}

	return schedules, nil
}

// Advance moves a fired schedule to its next due time and persists it.
func (s *Schedule) Advance(ctx context.Context, schedule *models.Schedule) error {
	err := schedule.UpdateNextDueAt()
	if err != nil {
		return fmt.Errorf("failed to compute next due time: %w", err)
	}

	err = s.persistence.ScheduleRepository().Update(ctx, schedule)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	return nil
}

// Delete removes a schedule.
func (s *Schedule) Delete(ctx context.Context, id string) error {
	err := s.persistence.ScheduleRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	return nil
}
