package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// DefinitionRepository stores workflow definitions in a map. Definitions are
// write-once, so readers only ever see complete values.
type DefinitionRepository struct {
	mu          sync.RWMutex
	definitions map[string]*models.WorkflowDefinition
}

func NewDefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{
		definitions: make(map[string]*models.WorkflowDefinition),
	}
}

func (r *DefinitionRepository) Save(_ context.Context, definition *models.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[definition.ID]; exists {
		return persistence.NewDefinitionError("Save", definition.ID, persistence.ErrDefinitionAlreadyExists)
	}

	r.definitions[definition.ID] = cloneDefinition(definition)

	return nil
}

func (r *DefinitionRepository) GetByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, exists := r.definitions[id]
	if !exists {
		return nil, nil
	}

	return cloneDefinition(definition), nil
}

func (r *DefinitionRepository) GetAll(_ context.Context) ([]*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]*models.WorkflowDefinition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, cloneDefinition(definition))
	}

	sort.Slice(definitions, func(i, j int) bool {
		if !definitions[i].CreatedAt.Equal(definitions[j].CreatedAt) {
			return definitions[i].CreatedAt.Before(definitions[j].CreatedAt)
		}

		return definitions[i].ID < definitions[j].ID
	})

	return definitions, nil
}
