package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	backend "github.com/redis/go-redis/v9"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// DefinitionRepository stores definitions as JSON values under
// workflows:definition:<id>, indexed by the workflows:definitions set.
type DefinitionRepository struct {
	client *backend.Client
}

func NewDefinitionRepository(client *backend.Client) *DefinitionRepository {
	return &DefinitionRepository{client: client}
}

func (r *DefinitionRepository) key(id string) string {
	return keyPrefix + "definition:" + id
}

func (r *DefinitionRepository) indexKey() string {
	return keyPrefix + "definitions"
}

func (r *DefinitionRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	data, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(definition.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save definition: %w", err)
	}

	if !created {
		return persistence.NewDefinitionError("Save", definition.ID, persistence.ErrDefinitionAlreadyExists)
	}

	err = r.client.SAdd(ctx, r.indexKey(), definition.ID).Err()
	if err != nil {
		return fmt.Errorf("failed to index definition: %w", err)
	}

	return nil
}

func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal([]byte(val), &definition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	return &definition, nil
}

func (r *DefinitionRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		definition, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if definition != nil {
			definitions = append(definitions, definition)
		}
	}

	sort.Slice(definitions, func(i, j int) bool {
		if !definitions[i].CreatedAt.Equal(definitions[j].CreatedAt) {
			return definitions[i].CreatedAt.Before(definitions[j].CreatedAt)
		}

		return definitions[i].ID < definitions[j].ID
	})

	return definitions, nil
}
