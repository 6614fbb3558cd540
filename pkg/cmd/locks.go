package cmd

import (
	"log/slog"

	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/redis"
)

// NewGuard creates the per-instance lock guard. When persistence is backed
// by Redis the guard is extended with a Redis distributed lock, so instances
// stay serialized even with several API replicas sharing the store.
func NewGuard(p persistence.Persistence, logger *slog.Logger) *locks.Guard {
	if rp, ok := p.(*redis.Persistence); ok {
		return locks.NewGuard(
			locks.WithDistributedLocker(redis.NewLocker(rp.Client())),
			locks.WithLogger(logger),
		)
	}

	return locks.NewGuard(locks.WithLogger(logger))
}
