package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	logpkg "github.com/runlog/runlog/pkg/log"
)

// Stream yields a run's events in event-id order, one file at a time,
// without materializing the full set. Each call to Ledger.Stream re-reads
// the directory from scratch; a single Stream is consumed once.
type Stream struct {
	logger logpkg.Logger
	runID  string
	files  []streamEntry
	idx    int
}

type streamEntry struct {
	id   int64
	path string
}

// Stream opens a lazy ordered stream over runID's events. Ordering comes
// from the parsed event id in each filename, never from directory order.
func (l *Ledger) Stream(runID string) (*Stream, error) {
	dir, err := l.RunDir(runID)
	if err != nil {
		return nil, err
	}
	eventsDir := filepath.Join(dir, eventsDirName)
	entries, err := os.ReadDir(eventsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Stream{logger: l.logger, runID: runID}, nil
		}
		return nil, err
	}
	files := make([]streamEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseEventFilename(e.Name())
		if !ok {
			continue
		}
		files = append(files, streamEntry{id: id, path: filepath.Join(eventsDir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })
	return &Stream{logger: l.logger, runID: runID, files: files}, nil
}

// Next returns the next event. Malformed event files are skipped with a
// logged warning; one corrupt event must not block visibility into the rest
// of the run. Returns ok=false when the stream is exhausted.
func (s *Stream) Next() (Event, bool) {
	for s.idx < len(s.files) {
		entry := s.files[s.idx]
		s.idx++
		b, err := os.ReadFile(entry.path)
		if err != nil {
			s.warn(entry.path, err)
			continue
		}
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			s.warn(entry.path, err)
			continue
		}
		return ev, true
	}
	return Event{}, false
}

// Remaining reports how many files have not been visited yet.
func (s *Stream) Remaining() int { return len(s.files) - s.idx }

func (s *Stream) warn(path string, err error) {
	s.logger.Warn("skipping unreadable event file",
		logpkg.Str("run_id", s.runID), logpkg.Str("path", path), logpkg.Err(err))
}

// List drains a fresh stream into an ordered slice. Convenience for small
// runs and tooling; the hot path should use Stream.
func (l *Ledger) List(runID string) ([]Event, error) {
	s, err := l.Stream(runID)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, s.Remaining())
	for {
		ev, ok := s.Next()
		if !ok {
			return events, nil
		}
		events = append(events, ev)
	}
}
