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

// DefinitionRepository stores each workflow definition as
// <root>/definitions/<id>.json.
type DefinitionRepository struct {
	root string
}

func NewDefinitionRepository(root string) *DefinitionRepository {
	return &DefinitionRepository{root: root}
}

func (r *DefinitionRepository) Save(_ context.Context, definition *models.WorkflowDefinition) error {
	dir := path.Join(r.root, "definitions")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create definitions directory: %w", err)
	}

	filePath := filepath.Clean(path.Join(dir, definition.ID+".json"))
	if _, err := os.Stat(filePath); err == nil {
		return persistence.NewDefinitionError("Save", definition.ID, persistence.ErrDefinitionAlreadyExists)
	}

	data, err := json.MarshalIndent(definition, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write definition file: %w", err)
	}

	return nil
}

func (r *DefinitionRepository) GetByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	filePath := filepath.Clean(path.Join(r.root, "definitions", id+".json"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	return &definition, nil
}

func (r *DefinitionRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	files, err := fs.Glob(os.DirFS(path.Join(r.root, "definitions")), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list definition files: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(files))

	for _, file := range files {
		definition, err := r.GetByID(ctx, strings.TrimSuffix(file, ".json"))
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
