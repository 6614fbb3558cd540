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

// DefinitionRepository handles workflow definition database operations.
type DefinitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(db *sql.DB, logger *slog.Logger) *DefinitionRepository {
	return &DefinitionRepository{db: db, logger: logger}
}

// Save inserts a definition. Definitions are write-once, so an existing row
// with the same ID is reported as a conflict instead of being overwritten.
func (r *DefinitionRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	statesJSON, err := json.Marshal(definition.States)
	if err != nil {
		return fmt.Errorf("failed to marshal states: %w", err)
	}

	actionsJSON, err := json.Marshal(definition.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflow_definitions (id, name, description, states, actions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		definition.ID,
		definition.Name,
		definition.Description,
		statesJSON,
		actionsJSON,
		definition.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert definition: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}

	if inserted == 0 {
		return persistence.NewDefinitionError("Save", definition.ID, persistence.ErrDefinitionAlreadyExists)
	}

	return nil
}

func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , states
		  , actions
		  , created_at
		FROM workflow_definitions
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	definition, err := r.scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan definition: %w", err)
	}

	return definition, nil
}

func (r *DefinitionRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , states
		  , actions
		  , created_at
		FROM workflow_definitions
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	definitions := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		definition, err := r.scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		definitions = append(definitions, definition)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}

	return definitions, nil
}

func (r *DefinitionRepository) scanDefinition(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowDefinition, error) {
	var (
		definition              models.WorkflowDefinition
		statesJSON, actionsJSON []byte
	)

	err := scanner.Scan(
		&definition.ID,
		&definition.Name,
		&definition.Description,
		&statesJSON,
		&actionsJSON,
		&definition.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(statesJSON, &definition.States); err != nil {
		return nil, fmt.Errorf("failed to unmarshal states: %w", err)
	}

	if err := json.Unmarshal(actionsJSON, &definition.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &definition, nil
}
