package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/file"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/memory"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/postgresql"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/redis"
)

// NewPersistence creates a persistence layer from a database URL. The scheme
// selects the driver: postgres://, redis://, file://, or "memory" for the
// in-process store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, databaseURL)
	case "file":
		return file.NewPersistence(databaseURL), nil
	case "memory", "":
		return memory.NewPersistence(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider in database URL: %s", databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return databaseURL
	}

	return provider
}
