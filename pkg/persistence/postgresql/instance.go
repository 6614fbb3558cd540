package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// InstanceRepository handles workflow instance database operations.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

func (r *InstanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	historyJSON, err := json.Marshal(instance.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO workflow_instances (id, definition_id, current_state_id, history, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.DefinitionID,
		instance.CurrentStateID,
		historyJSON,
		instance.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert instance: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}

	if inserted == 0 {
		return persistence.NewInstanceError("Save", instance.ID, persistence.ErrInstanceAlreadyExists)
	}

	return nil
}

// Update persists the current state and history of an existing instance.
func (r *InstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance) error {
	historyJSON, err := json.Marshal(instance.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		UPDATE workflow_instances
		SET current_state_id = $2, history = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, instance.ID, instance.CurrentStateID, historyJSON)
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}

	if updated == 0 {
		return persistence.NewInstanceError("Update", instance.ID, persistence.ErrInstanceNotFound)
	}

	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	instance, err := r.scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	return instance, nil
}

func (r *InstanceRepository) GetAll(ctx context.Context) ([]*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		ORDER BY created_at, id
	`

	return r.queryInstances(ctx, query)
}

func (r *InstanceRepository) GetByDefinitionID(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		WHERE definition_id = $1
		ORDER BY created_at, id
	`

	return r.queryInstances(ctx, query, definitionID)
}

func (r *InstanceRepository) queryInstances(ctx context.Context, query string, args ...any) ([]*models.WorkflowInstance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.WorkflowInstance, 0)

	for rows.Next() {
		instance, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		instances = append(instances, instance)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating instances: %w", err)
	}

	return instances, nil
}

func (r *InstanceRepository) scanInstance(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowInstance, error) {
	var (
		instance    models.WorkflowInstance
		historyJSON []byte
	)

	err := scanner.Scan(
		&instance.ID,
		&instance.DefinitionID,
		&instance.CurrentStateID,
		&historyJSON,
		&instance.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(historyJSON, &instance.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return &instance, nil
}
