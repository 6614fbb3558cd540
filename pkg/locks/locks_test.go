package locks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_SerializesSameKey(t *testing.T) {
	guard := NewGuard()

	const workers = 50

	counter := 0

	var wg sync.WaitGroup

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			_ = guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
				value := counter
				time.Sleep(time.Microsecond)
				counter = value + 1

				return nil
			})
		}()
	}

	wg.Wait()

	assert.Equal(t, workers, counter, "read-modify-write under the guard must not lose updates")
}

func TestGuard_IndependentKeysDoNotBlock(t *testing.T) {
	guard := NewGuard()
	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
			close(holding)
			<-release

			return nil
		})
	}()

	<-holding

	done := make(chan struct{})

	go func() {
		_ = guard.WithLock(t.Context(), "inst-2", func(_ context.Context) error {
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key should not block")
	}

	close(release)
}

func TestGuard_ReleasesEntries(t *testing.T) {
	guard := NewGuard()

	require.NoError(t, guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
		return nil
	}))

	guard.mu.Lock()
	defer guard.mu.Unlock()

	assert.Empty(t, guard.locks, "entries must be dropped once unused")
}

func TestGuard_PropagatesFnError(t *testing.T) {
	guard := NewGuard()
	wantErr := errors.New("boom")

	err := guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

type stubLocker struct {
	mu       sync.Mutex
	acquired []string
	released []string
	failWith error
}

func (s *stubLocker) Lock(_ context.Context, key string, _ time.Duration) (UnlockFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	s.acquired = append(s.acquired, key)

	return func(_ context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.released = append(s.released, key)

		return nil
	}, nil
}

func TestGuard_UsesDistributedLocker(t *testing.T) {
	locker := &stubLocker{}
	guard := NewGuard(WithDistributedLocker(locker))

	require.NoError(t, guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
		return nil
	}))

	assert.Equal(t, []string{"inst-1"}, locker.acquired)
	assert.Equal(t, []string{"inst-1"}, locker.released)
}

func TestGuard_DistributedLockerFailure(t *testing.T) {
	locker := &stubLocker{failWith: errors.New("redis down")}
	guard := NewGuard(WithDistributedLocker(locker))

	called := false

	err := guard.WithLock(t.Context(), "inst-1", func(_ context.Context) error {
		called = true

		return nil
	})

	require.Error(t, err)
	assert.False(t, called, "fn must not run without the distributed lock")
}
