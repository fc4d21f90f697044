package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// held tracks the locks taken by this process, keyed by absolute path.
var held = struct {
	sync.Mutex
	locks map[string]*Lock
}{locks: map[string]*Lock{}}

// Lock is an advisory, PID-checked lock file guarding a sync run.
type Lock struct {
	path string
	key  string
	pid  int
}

// AcquireLock creates the lock file at path containing the current PID.
//
// When the file already names a live process, or another caller in this process holds it,
// [ErrLockHeld] is returned. A file naming a dead process, or one that cannot be parsed, is
// treated as stale and replaced. So is a file carrying our own PID that this process never
// acquired, which happens when a restarted container reuses the PID.
func AcquireLock(path string) (*Lock, error) {
	key := lockKey(path)

	held.Lock()
	defer held.Unlock()
	if _, ok := held.locks[key]; ok {
		return nil, fmt.Errorf("%w: held by this process (%s)", ErrLockHeld, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}

	pid := os.Getpid()
	for range 2 {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", pid)
			cerr := f.Close()
			if werr = errors.Join(werr, cerr); werr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lock file: %w", werr)
			}
			lock := &Lock{path: path, key: key, pid: pid}
			held.locks[key] = lock
			return lock, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		holder, ok := ReadLockPID(path)
		if ok && holder != pid && processAlive(holder) {
			return nil, fmt.Errorf("%w: pid %d (%s)", ErrLockHeld, holder, path)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: lost race for %s", ErrLockHeld, path)
}

// ReadLockPID returns the PID recorded in the lock file at path.
func ReadLockPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file if it still belongs to l. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	held.Lock()
	defer held.Unlock()
	if held.locks[l.key] != l {
		return nil
	}
	delete(held.locks, l.key)

	if holder, ok := ReadLockPID(l.path); ok && holder != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
