// Package locks provides per-key mutual exclusion for read-modify-write
// sequences against shared storage.
package locks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates exclusive access across processes. The
// in-process guard always applies; a distributed locker extends the same
// scope to multiple replicas sharing one storage backend.
type DistributedLocker interface {
	// Lock acquires a lock for the given key. It blocks until the lock is
	// acquired or the context is canceled. The returned UnlockFunc MUST be
	// called to release the lock; the TTL bounds how long a crashed holder
	// can keep the key locked.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// lockEntry holds one key's mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Guard serializes access per key. Entries are reference counted so the map
// only holds keys with active or waiting holders.
type Guard struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithDistributedLocker extends the guard across processes.
func WithDistributedLocker(locker DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.ttl = ttl
	}
}

// WithLogger configures a logger for deferred release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a per-key guard.
func NewGuard(opts ...Option) *Guard {
	guard := &Guard{
		locks:  make(map[string]*lockEntry),
		ttl:    30 * time.Second,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(guard)
	}

	return guard
}

// acquire gets or creates the entry for a key and increments its reference
// count. The caller must lock entry.mu and call release(key) after
// unlocking it.
func (g *Guard) acquire(key string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		entry = &lockEntry{}
		g.locks[key] = entry
	}

	entry.refs++

	return entry
}

// release decrements the reference count and drops the entry at zero.
func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, key)
	}
}

// WithLock runs fn while holding the exclusive scope for the key.
func (g *Guard) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	entry := g.acquire(key)
	entry.mu.Lock()

	defer func() {
		entry.mu.Unlock()
		g.release(key)
	}()

	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, key, g.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}

		defer func() {
			if err := unlock(ctx); err != nil {
				g.logger.Warn("Failed to release distributed lock, it will expire via TTL",
					"key", key,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx)
}
