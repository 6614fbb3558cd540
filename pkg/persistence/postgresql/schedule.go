package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// ScheduleRepository handles schedule database operations.
type ScheduleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sql.DB, logger *slog.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger}
}

func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) error {
	query := `
		INSERT INTO workflow_schedules (id, definition_id, cron_expression, next_due_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.DefinitionID,
		schedule.CronExpression,
		schedule.NextDueAt,
		schedule.Active,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}

	if inserted == 0 {
		return persistence.NewScheduleError("Save", schedule.ID, persistence.ErrScheduleAlreadyExists)
	}

	return nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	query := `
		UPDATE workflow_schedules
		SET cron_expression = $2, next_due_at = $3, active = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.CronExpression,
		schedule.NextDueAt,
		schedule.Active,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}

	if updated == 0 {
		return persistence.NewScheduleError("Update", schedule.ID, persistence.ErrScheduleNotFound)
	}

	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , cron_expression
		  , next_due_at
		  , active
		  , created_at
		  , updated_at
		FROM workflow_schedules
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	schedule, err := r.scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	return schedule, nil
}

func (r *ScheduleRepository) GetAll(ctx context.Context) ([]*models.Schedule, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , cron_expression
		  , next_due_at
		  , active
		  , created_at
		  , updated_at
		FROM workflow_schedules
		ORDER BY next_due_at, id
	`

	return r.querySchedules(ctx, query)
}

// DueSchedules returns active schedules whose next due time is at or before
// the given instant.
func (r *ScheduleRepository) DueSchedules(ctx context.Context, before time.Time) ([]*models.Schedule, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , cron_expression
		  , next_due_at
		  , active
		  , created_at
		  , updated_at
		FROM workflow_schedules
		WHERE active AND next_due_at <= $1
		ORDER BY next_due_at, id
	`

	return r.querySchedules(ctx, query, before)
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflow_schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if deleted == 0 {
		return persistence.NewScheduleError("Delete", id, persistence.ErrScheduleNotFound)
	}

	return nil
}

func (r *ScheduleRepository) querySchedules(ctx context.Context, query string, args ...any) ([]*models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	schedules := make([]*models.Schedule, 0)

	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		schedules = append(schedules, schedule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	return schedules, nil
}

func (r *ScheduleRepository) scanSchedule(scanner interface {
	Scan(dest ...any) error
}) (*models.Schedule, error) {
	var schedule models.Schedule

	err := scanner.Scan(
		&schedule.ID,
		&schedule.DefinitionID,
		&schedule.CronExpression,
		&schedule.NextDueAt,
		&schedule.Active,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}
