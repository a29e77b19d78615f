package nfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	lockMode         = 0o600
	lockPollInterval = 50 * time.Millisecond
)

var errWouldBlock = errors.New("lock held elsewhere")

// Guard serializes read-modify-write cycles on the exports table across
// processes with an advisory lock on a companion file. Each Acquire opens its
// own descriptor, so goroutines of one process exclude each other as well.
type Guard struct {
	lockPath  string
	tablePath string
	timeout   time.Duration
}

// NewGuard returns a guard for tablePath locked through lockPath. A zero timeout
// waits until the context passed to Acquire is done.
func NewGuard(lockPath, tablePath string, timeout time.Duration) *Guard {
	return &Guard{lockPath: lockPath, tablePath: tablePath, timeout: timeout}
}

// Acquire blocks until the lock is held, then makes sure the table file exists
// so every later reader finds a real file. The returned handle must be released.
// Acquire is not re-entrant: a caller that already holds a handle waits on
// itself until ctx or the guard timeout ends.
func (g *Guard) Acquire(ctx context.Context) (*Lock, error) {
	start := time.Now()

	for _, dir := range []string{filepath.Dir(g.tablePath), filepath.Dir(g.lockPath)} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return nil, systemError(err, "create %s", dir)
		}
	}

	f, err := os.OpenFile(g.lockPath, os.O_RDWR|os.O_CREATE, lockMode)
	if err != nil {
		return nil, systemError(err, "open %s", g.lockPath)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	err = wait.PollUntilContextCancel(ctx, lockPollInterval, true, func(context.Context) (bool, error) {
		switch err := tryLock(f); {
		case err == nil:
			return true, nil
		case errors.Is(err, errWouldBlock):
			return false, nil
		default:
			return false, err
		}
	})
	LockWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		_ = f.Close()
		if wait.Interrupted(err) {
			log.Warn().Str("lock", g.lockPath).Dur("waited", time.Since(start)).Msg("gave up waiting for exports lock")
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, g.lockPath)
		}
		return nil, systemError(err, "lock %s", g.lockPath)
	}

	table, err := os.OpenFile(g.tablePath, os.O_RDONLY|os.O_CREATE, tableMode)
	if err != nil {
		_ = unlock(f)
		_ = f.Close()
		return nil, systemError(err, "create %s", g.tablePath)
	}
	_ = table.Close()

	log.Debug().Str("lock", g.lockPath).Dur("waited", time.Since(start)).Msg("exports lock acquired")
	return &Lock{path: g.lockPath, f: f}, nil
}

// Lock is a held exports lock. Only the holder of the handle can release it.
type Lock struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Release drops the lock. Releasing twice returns ErrNotHeld.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrNotHeld
	}
	uerr := unlock(l.f)
	cerr := l.f.Close()
	l.f = nil
	if uerr != nil {
		return systemError(uerr, "unlock %s", l.path)
	}
	if cerr != nil {
		return systemError(cerr, "close %s", l.path)
	}
	log.Debug().Str("lock", l.path).Msg("exports lock released")
	return nil
}
