package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/runlog/runlog/internal/ledger"
	logpkg "github.com/runlog/runlog/pkg/log"
)

// FileName is the index file, a sibling of the organization directories.
const FileName = ".runs-index.json"

// Entry is a denormalized projection of one run's identity and state.
type Entry struct {
	RunID        string `json:"run_id"`
	WorkID       string `json:"work_id,omitempty"`
	Status       string `json:"status,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
}

// file is the on-disk shape of the index.
type file struct {
	GeneratedAt string  `json:"generated_at"`
	Runs        []Entry `json:"runs"`
}

// Filters narrow a run listing. Zero values match everything.
type Filters struct {
	WorkID       string
	Status       string
	Organization string
	Project      string
	// Limit truncates the result after filtering and sorting; <=0 uses the
	// index's configured default.
	Limit int
}

// DefaultLimit is applied when Filters.Limit is unset and no other default
// was configured.
const DefaultLimit = 20

// ListResult carries the truncated page and the pre-truncation total.
type ListResult struct {
	Runs  []Entry `json:"runs"`
	Total int     `json:"total"`
}

// Source abstracts where listing data comes from: the cached index when it
// loads, a full directory scan otherwise. The cache is never authoritative;
// stale or missing index data costs performance, not correctness.
type Source interface {
	// TryLoad returns cached entries, or ok=false when the cache is absent
	// or unreadable.
	TryLoad() ([]Entry, bool)
	// FallbackScan recomputes entries from the run directories.
	FallbackScan() ([]Entry, error)
}

// Index lists runs under a base directory and maintains the cache file.
type Index struct {
	base         string
	logger       logpkg.Logger
	defaultLimit int
}

// Option configures an Index.
type Option func(*Index)

// WithDefaultLimit sets the page size used when Filters.Limit is unset.
// Values <=0 keep DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.defaultLimit = n
		}
	}
}

// New returns an Index over base.
func New(base string, logger logpkg.Logger, opts ...Option) *Index {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("index"))
	}
	ix := &Index{base: base, logger: logger, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// ListRuns returns runs matching filters, sorted by created_at descending
// and truncated to the limit. Total reflects the filtered set before
// truncation.
func (ix *Index) ListRuns(filters Filters) (ListResult, error) {
	entries, ok := ix.TryLoad()
	if !ok {
		var err error
		entries, err = ix.FallbackScan()
		if err != nil {
			return ListResult{}, err
		}
	}
	filtered := entries[:0:0]
	for _, e := range entries {
		if matches(e, filters) {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt > filtered[j].CreatedAt
	})
	total := len(filtered)
	limit := filters.Limit
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return ListResult{Runs: filtered, Total: total}, nil
}

// Rebuild recomputes the full index via the fallback path and atomically
// replaces the index file. Invoked by an external scheduler after run
// completion; the hot write path never maintains the index.
func (ix *Index) Rebuild() error {
	entries, err := ix.FallbackScan()
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
	out, err := json.MarshalIndent(file{
		GeneratedAt: ledger.FormatTimestamp(time.Now()),
		Runs:        entries,
	}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(ix.base, FileName)
	tmp := fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, append(out, '\n'), 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// TryLoad implements Source over the index file.
func (ix *Index) TryLoad() ([]Entry, bool) {
	b, err := os.ReadFile(filepath.Join(ix.base, FileName))
	if err != nil {
		return nil, false
	}
	var f file
	if err := json.Unmarshal(b, &f); err != nil {
		ix.logger.Warn("index file unreadable, falling back to scan", logpkg.Err(err))
		return nil, false
	}
	return f.Runs, true
}

func matches(e Entry, f Filters) bool {
	if f.WorkID != "" && e.WorkID != f.WorkID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Organization != "" || f.Project != "" {
		org, project := splitRunID(e.RunID)
		if f.Organization != "" && org != f.Organization {
			return false
		}
		if f.Project != "" && project != f.Project {
			return false
		}
	}
	return true
}

func splitRunID(runID string) (org, project string) {
	segs := strings.Split(runID, "/")
	if len(segs) >= 2 {
		return segs[0], segs[1]
	}
	return "", ""
}
