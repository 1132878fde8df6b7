package index

import (
	"os"
	"path/filepath"

	"github.com/runlog/runlog/internal/ledger"
	logpkg "github.com/runlog/runlog/pkg/log"
)

// FallbackScan implements Source by walking organization/project/run
// directories. A run counts when it holds a readable state.json; anything
// unreadable or half-written is skipped so one bad run never breaks listing.
func (ix *Index) FallbackScan() ([]Entry, error) {
	orgs, err := os.ReadDir(ix.base)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, org := range orgs {
		if !org.IsDir() {
			continue
		}
		projects, err := os.ReadDir(filepath.Join(ix.base, org.Name()))
		if err != nil {
			continue
		}
		for _, project := range projects {
			if !project.IsDir() {
				continue
			}
			runs, err := os.ReadDir(filepath.Join(ix.base, org.Name(), project.Name()))
			if err != nil {
				continue
			}
			for _, run := range runs {
				if !run.IsDir() {
					continue
				}
				runID := org.Name() + "/" + project.Name() + "/" + run.Name()
				runDir := filepath.Join(ix.base, org.Name(), project.Name(), run.Name())
				entry, ok := ix.scanRun(runID, runDir)
				if !ok {
					continue
				}
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

func (ix *Index) scanRun(runID, runDir string) (Entry, bool) {
	st, err := ledger.ReadState(runDir)
	if err != nil {
		ix.logger.Debug("skipping run without readable state",
			logpkg.Str("run_id", runID), logpkg.Err(err))
		return Entry{}, false
	}
	entry := Entry{
		RunID:        runID,
		WorkID:       st.WorkID,
		Status:       st.Status,
		UpdatedAt:    st.UpdatedAt,
		CompletedAt:  st.CompletedAt,
		CurrentPhase: st.CurrentPhase,
	}
	if md, err := ledger.ReadMetadata(runDir); err == nil {
		entry.CreatedAt = md.CreatedAt
		if entry.WorkID == "" {
			entry.WorkID = md.WorkID
		}
	}
	return entry, true
}
