package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// InstanceRepository stores each workflow instance as
// <root>/instances/<id>.json. The whole document, history included, is
// rewritten on every update.
type InstanceRepository struct {
	root string
}

func NewInstanceRepository(root string) *InstanceRepository {
	return &InstanceRepository{root: root}
}

func (r *InstanceRepository) Save(_ context.Context, instance *models.WorkflowInstance) error {
	dir := path.Join(r.root, "instances")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create instances directory: %w", err)
	}

	filePath := filepath.Clean(path.Join(dir, instance.ID+".json"))
	if _, err := os.Stat(filePath); err == nil {
		return persistence.NewInstanceError("Save", instance.ID, persistence.ErrInstanceAlreadyExists)
	}

	return r.write(filePath, instance)
}

func (r *InstanceRepository) Update(_ context.Context, instance *models.WorkflowInstance) error {
	filePath := filepath.Clean(path.Join(r.root, "instances", instance.ID+".json"))
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewInstanceError("Update", instance.ID, persistence.ErrInstanceNotFound)
		}

		return fmt.Errorf("failed to stat instance file: %w", err)
	}

	return r.write(filePath, instance)
}

func (r *InstanceRepository) write(filePath string, instance *models.WorkflowInstance) error {
	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write instance file: %w", err)
	}

	return nil
}

func (r *InstanceRepository) GetByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	filePath := filepath.Clean(path.Join(r.root, "instances", id+".json"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read instance file: %w", err)
	}

	var instance models.WorkflowInstance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", id, err)
	}

	return &instance, nil
}

func (r *InstanceRepository) GetAll(ctx context.Context) ([]*models.WorkflowInstance, error) {
	files, err := fs.Glob(os.DirFS(path.Join(r.root, "instances")), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list instance files: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(files))

	for _, file := range files {
		instance, err := r.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if instance != nil {
			instances = append(instances, instance)
		}
	}

	sortInstances(instances)

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

func sortInstances(instances []*models.WorkflowInstance) {
	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].CreatedAt.Before(instances[j].CreatedAt)
		}

		return instances[i].ID < instances[j].ID
	})
}
