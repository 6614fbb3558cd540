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

// InstanceRepository stores instances as JSON values under
// workflows:instance:<id>, indexed by the workflows:instances set.
type InstanceRepository struct {
	client *backend.Client
}

func NewInstanceRepository(client *backend.Client) *InstanceRepository {
	return &InstanceRepository{client: client}
}

func (r *InstanceRepository) key(id string) string {
	return keyPrefix + "instance:" + id
}

func (r *InstanceRepository) indexKey() string {
	return keyPrefix + "instances"
}

func (r *InstanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(instance.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	if !created {
		return persistence.NewInstanceError("Save", instance.ID, persistence.ErrInstanceAlreadyExists)
	}

	err = r.client.SAdd(ctx, r.indexKey(), instance.ID).Err()
	if err != nil {
		return fmt.Errorf("failed to index instance: %w", err)
	}

	return nil
}

// Update overwrites an existing instance. SetXX only succeeds when the key is
// already present, which keeps the not-found contract without a round trip.
func (r *InstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	updated, err := r.client.SetXX(ctx, r.key(instance.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	if !updated {
		return persistence.NewInstanceError("Update", instance.ID, persistence.ErrInstanceNotFound)
	}

	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	var instance models.WorkflowInstance
	if err := json.Unmarshal([]byte(val), &instance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", id, err)
	}

	return &instance, nil
}

func (r *InstanceRepository) GetAll(ctx context.Context) ([]*models.WorkflowInstance, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(ids))

	for _, id := range ids {
		instance, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if instance != nil {
			instances = append(instances, instance)
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].CreatedAt.Before(instances[j].CreatedAt)
		}

		return instances[i].ID < instances[j].ID
	})

	return instances, nil
}

func (r *InstanceRepository) GetByDefinitionID(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	instances := make([]*models.WorkflowInstance, 0, len(all))

	for _, instance := range all {
		if instance.DefinitionID == definitionID {
			instances = append(instances, instance)
		}
	}

	return instances, nil
}
