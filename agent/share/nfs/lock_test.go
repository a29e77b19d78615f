package nfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T, timeout time.Duration) (*Guard, string) {
	t.Helper()
	table := filepath.Join(t.TempDir(), "exports.d", "t.exports")
	return NewGuard(table+".lock", table, timeout), table
}

func TestGuardAcquire(t *testing.T) {
	t.Run("creates directory and empty table", func(t *testing.T) {
		g, table := newTestGuard(t, time.Second)

		lock, err := g.Acquire(context.Background())
		require.NoError(t, err)
		defer func() { _ = lock.Release() }()

		info, err := os.Stat(table)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("keeps existing table", func(t *testing.T) {
		g, table := newTestGuard(t, time.Second)
		writeFile(t, table, sampleTable)

		lock, err := g.Acquire(context.Background())
		require.NoError(t, err)
		require.NoError(t, lock.Release())

		assert.Equal(t, sampleTable, readFile(t, table))
	})
}

func TestLockRelease(t *testing.T) {
	g, _ := newTestGuard(t, time.Second)

	lock, err := g.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	err = lock.Release()
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.Equal(t, ErrNotFound, Code(err))

	// released lock can be taken again
	again, err := g.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestGuardExclusive(t *testing.T) {
	g, _ := newTestGuard(t, 200*time.Millisecond)

	held, err := g.Acquire(context.Background())
	require.NoError(t, err)

	t.Run("not re-entrant, holder times out", func(t *testing.T) {
		start := time.Now()
		_, err := g.Acquire(context.Background())
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	})

	t.Run("honours context", func(t *testing.T) {
		unbounded := NewGuard(g.lockPath, g.tablePath, 0)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := unbounded.Acquire(ctx)
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("waiter proceeds after release", func(t *testing.T) {
		waiting := NewGuard(g.lockPath, g.tablePath, 5*time.Second)
		got := make(chan error, 1)
		go func() {
			l, err := waiting.Acquire(context.Background())
			if err == nil {
				err = l.Release()
			}
			got <- err
		}()

		time.Sleep(100 * time.Millisecond)
		select {
		case err := <-got:
			t.Fatalf("waiter acquired a held lock: %v", err)
		default:
		}

		require.NoError(t, held.Release())
		select {
		case err := <-got:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("waiter never acquired released lock")
		}
	})
}

func TestGuardOpenFailure(t *testing.T) {
	dir := t.TempDir()
	// parent of the lock path is a regular file
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "")
	g := NewGuard(filepath.Join(blocker, "t.lock"), filepath.Join(dir, "t.exports"), time.Second)

	_, err := g.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrSystem, Code(err))
	assert.False(t, errors.Is(err, ErrLockTimeout))
}
