package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// InstanceRepository stores workflow instances in a map.
type InstanceRepository struct {
	mu        sync.RWMutex
	instances map[string]*models.WorkflowInstance
}

func NewInstanceRepository() *InstanceRepository {
	return &InstanceRepository{
		instances: make(map[string]*models.WorkflowInstance),
	}
}

func (r *InstanceRepository) Save(_ context.Context, instance *models.WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[instance.ID]; exists {
		return persistence.NewInstanceError("Save", instance.ID, persistence.ErrInstanceAlreadyExists)
	}

	r.instances[instance.ID] = cloneInstance(instance)

	return nil
}

func (r *InstanceRepository) Update(_ context.Context, instance *models.WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[instance.ID]; !exists {
		return persistence.NewInstanceError("Update", instance.ID, persistence.ErrInstanceNotFound)
	}

	r.instances[instance.ID] = cloneInstance(instance)

	return nil
}

func (r *InstanceRepository) GetByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[id]
	if !exists {
		return nil, nil
	}

	return cloneInstance(instance), nil
}

func (r *InstanceRepository) GetAll(_ context.Context) ([]*models.WorkflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*models.WorkflowInstance, 0, len(r.instances))
	for _, instance := range r.instances {
		instances = append(instances, cloneInstance(instance))
	}

	sortInstances(instances)

	return instances, nil
}

func (r *InstanceRepository) GetByDefinitionID(_ context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*models.WorkflowInstance, 0)

	for _, instance := range r.instances {
		if instance.DefinitionID == definitionID {
			instances = append(instances, cloneInstance(instance))
		}
	}

	sortInstances(instances)

	return instances, nil
}

func sortInstances(instances []*models.WorkflowInstance) {
	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].CreatedAt.Before(instances[j].CreatedAt)
		}

		return instances[i].ID < instances[j].ID
	})
}
