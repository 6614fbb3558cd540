// Package redis provides the Redis persistence implementation for workflow
// definitions, instances and schedules, plus a distributed locker for
// serializing instance updates across processes.
//
// Entities are stored as JSON values under namespaced keys, with one set per
// entity type acting as the listing index.
package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

const keyPrefix = "workflows:"

// Persistence implements the persistence layer on top of Redis.
type Persistence struct {
	client         *backend.Client
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence connects to Redis using a redis:// URL and verifies the
// connection with a ping.
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	opts, err := backend.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := backend.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client:         client,
		definitionRepo: NewDefinitionRepository(client),
		instanceRepo:   NewInstanceRepository(client),
		scheduleRepo:   NewScheduleRepository(client),
	}, nil
}

// Client exposes the underlying connection so callers can share it with the
// distributed locker.
func (p *Persistence) Client() *backend.Client {
	return p.client
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

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
