package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const metadataFileName = "metadata.json"

// Metadata is the immutable descriptive record written at run creation.
// This subsystem treats it as read-only.
type Metadata struct {
	RunID     string `json:"run_id,omitempty"`
	WorkID    string `json:"work_id,omitempty"`
	Plan      string `json:"plan,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ReadMetadata loads a run directory's metadata.json.
func ReadMetadata(runDir string) (Metadata, error) {
	b, err := os.ReadFile(filepath.Join(runDir, metadataFileName))
	if err != nil {
		return Metadata{}, err
	}
	var md Metadata
	if err := json.Unmarshal(b, &md); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", metadataFileName, err)
	}
	return md, nil
}
