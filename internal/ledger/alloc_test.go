package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestAllocator(t *testing.T) *allocator {
	t.Helper()
	return newAllocator(t.TempDir(), 10, 2*time.Millisecond, time.Second)
}

func TestAllocatorSequential(t *testing.T) {
	a := newTestAllocator(t)
	for want := int64(1); want <= 10; want++ {
		got, err := a.NextID()
		if err != nil {
			t.Fatalf("next id: %v", err)
		}
		if got != want {
			t.Fatalf("id: got %d want %d", got, want)
		}
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Independent allocator values model independent processes:
			// nothing is shared but the directory.
			a := newAllocator(dir, 20, time.Millisecond, time.Second)
			id, err := a.NextID()
			if err != nil {
				t.Errorf("next id: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	for id := int64(1); id <= n; id++ {
		if !seen[id] {
			t.Fatalf("missing id %d (gaps are not allowed)", id)
		}
	}
}

func TestAllocatorExhaustsRetries(t *testing.T) {
	dir := t.TempDir()
	// A fresh lock file that never goes away forces every attempt to lose.
	lock := filepath.Join(dir, lockName)
	if err := os.WriteFile(lock, []byte("2\n"), 0o644); err != nil {
		t.Fatalf("plant lock: %v", err)
	}
	a := newAllocator(dir, 3, time.Millisecond, time.Hour)
	_, err := a.NextID()
	if !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("expected ErrAllocationFailed, got %v", err)
	}
}

func TestAllocatorReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, lockName)
	if err := os.WriteFile(lock, []byte("9\n"), 0o644); err != nil {
		t.Fatalf("plant lock: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lock, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}
	a := newAllocator(dir, 5, time.Millisecond, 10*time.Second)
	id, err := a.NextID()
	if err != nil {
		t.Fatalf("next id after stale reclaim: %v", err)
	}
	if id != 1 {
		t.Fatalf("stale lock must not leak its value: got %d", id)
	}
}

func TestAllocatorCorruptCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, counterName), []byte("banana"), 0o644); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	a := newAllocator(dir, 3, time.Millisecond, time.Second)
	if _, err := a.NextID(); err == nil {
		t.Fatalf("expected error for corrupt counter")
	}
}

func TestAllocatorCounterOnlyIncreases(t *testing.T) {
	a := newTestAllocator(t)
	if _, err := a.NextID(); err != nil {
		t.Fatalf("next: %v", err)
	}
	first, err := a.readCounter()
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if _, err := a.NextID(); err != nil {
		t.Fatalf("next: %v", err)
	}
	second, err := a.readCounter()
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if second <= first {
		t.Fatalf("counter must only increase: %d then %d", first, second)
	}
}
