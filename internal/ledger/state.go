package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "state.json"

// State is the typed read view of a run's state.json. Orchestration-owned
// fields (status, current_phase, work_id) pass through untouched on writes.
type State struct {
	LastEventID  int64  `json:"last_event_id"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	Status       string `json:"status,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
	WorkID       string `json:"work_id,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// ReadState loads and parses a run directory's state.json.
func ReadState(runDir string) (State, error) {
	b, err := os.ReadFile(filepath.Join(runDir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, ErrStateFileMissing
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, fmt.Errorf("parse %s: %w", stateFileName, err)
	}
	return st, nil
}

// advanceState sets last_event_id and updated_at in state.json via a
// uniquely-named temp file and an atomic rename. Fields this subsystem does
// not own are preserved verbatim, including ones it does not know about,
// which is why the update goes through a raw map rather than the State type.
// On any failure the temp file is removed and state.json is untouched.
func advanceState(runDir string, eventID int64, timestamp string) error {
	statePath := filepath.Join(runDir, stateFileName)
	b, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrStateFileMissing
		}
		return err
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("parse %s: %w", stateFileName, err)
	}
	obj["last_event_id"] = eventID
	obj["updated_at"] = timestamp

	out, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	tmp := fmt.Sprintf("%s.%d.%d.tmp", statePath, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, statePath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
