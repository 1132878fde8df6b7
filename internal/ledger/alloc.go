package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	counterName = ".next-id"
	lockName    = ".next-id.tmp"
)

// errLockHeld signals a lost allocation race; the caller backs off and retries.
var errLockHeld = errors.New("allocation lock held")

// allocator hands out strictly increasing event ids for one run, safe across
// independent OS processes. The sole mutual-exclusion primitive is exclusive
// creation of the counter's temp file followed by an atomic rename onto the
// counter; no advisory locks are used.
type allocator struct {
	dir         string // the run's events/ directory
	maxAttempts int
	backoff     time.Duration // linear unit: attempt N sleeps N*backoff
	staleAfter  time.Duration // reclaim window for an abandoned temp file
}

func newAllocator(eventsDir string, maxAttempts int, backoff, staleAfter time.Duration) *allocator {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Second
	}
	return &allocator{dir: eventsDir, maxAttempts: maxAttempts, backoff: backoff, staleAfter: staleAfter}
}

// NextID allocates the next event id. The returned value is the counter's
// pre-increment value; the incremented value is persisted for the next
// caller. Exhausting the retry budget is ErrAllocationFailed: duplicate or
// skipped ids are never acceptable, so contention is surfaced, not papered
// over.
func (a *allocator) NextID() (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		id, err := a.tryAllocate()
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, errLockHeld) {
			return 0, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt) * a.backoff)
	}
	return 0, fmt.Errorf("%w: %d attempts on %s: %v", ErrAllocationFailed, a.maxAttempts, a.dir, lastErr)
}

func (a *allocator) tryAllocate() (int64, error) {
	lockPath := filepath.Join(a.dir, lockName)
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			a.reclaimStale(lockPath)
			return 0, errLockHeld
		}
		return 0, err
	}

	// Holding the lock: read the counter, persist the increment, commit via
	// rename. The rename also releases the lock.
	current, err := a.readCounter()
	if err != nil {
		f.Close()
		os.Remove(lockPath)
		return 0, err
	}
	if _, err := f.WriteString(strconv.FormatInt(current+1, 10) + "\n"); err != nil {
		f.Close()
		os.Remove(lockPath)
		return 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(lockPath)
		return 0, err
	}
	if err := os.Rename(lockPath, filepath.Join(a.dir, counterName)); err != nil {
		os.Remove(lockPath)
		return 0, err
	}
	return current, nil
}

// readCounter returns the stored counter value, defaulting to 1 when the
// counter file does not exist yet.
func (a *allocator) readCounter() (int64, error) {
	b, err := os.ReadFile(filepath.Join(a.dir, counterName))
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("corrupt counter file in %s: %q", a.dir, strings.TrimSpace(string(b)))
	}
	return n, nil
}

// reclaimStale removes a temp file left behind by a crashed holder once it
// is older than the liveness window, so a single dead process cannot wedge
// allocation for the whole run.
func (a *allocator) reclaimStale(lockPath string) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) > a.staleAfter {
		os.Remove(lockPath)
	}
}
