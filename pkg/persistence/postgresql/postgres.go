// Package postgresql provides the PostgreSQL persistence implementation for
// workflow definitions, instances and schedules.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence opens a PostgreSQL connection, runs pending migrations and
// returns the ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		definitionRepo: NewDefinitionRepository(database, logger),
		instanceRepo:   NewInstanceRepository(database, logger),
		scheduleRepo:   NewScheduleRepository(database, logger),
	}, nil
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

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
