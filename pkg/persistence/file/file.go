// Package file provides a JSON-file-backed implementation of the persistence
// interfaces. Each entity is stored as one indented JSON document under a
// subdirectory of the configured root, which makes the store trivially
// inspectable and diffable during development.
package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// Persistence aggregates the file-backed repositories under a shared root
// directory.
type Persistence struct {
	root           string
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence creates a file-backed persistence layer rooted at the given
// directory. The "file://" URL prefix is accepted and stripped so the root can
// be passed straight from a DATABASE_URL-style setting.
func NewPersistence(root string) persistence.Persistence {
	root = strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:           root,
		definitionRepo: NewDefinitionRepository(root),
		instanceRepo:   NewInstanceRepository(root),
		scheduleRepo:   NewScheduleRepository(root),
	}
}

func (p *Persistence) DefinitionRepository() persistence.DefinitionRepository {
	return p.definitionRepo
}

func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return p.scheduleRepo
}

// HealthCheck verifies the root directory is accessible.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return fmt.Errorf("persistence root %s is not accessible: %w", p.root, err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
