package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Compression selects the consolidated archive's encoding.
type Compression string

const (
	// CompressionNone writes plain line-delimited JSON (events.jsonl).
	CompressionNone Compression = "none"
	// CompressionZstd writes zstd-compressed JSONL (events.jsonl.zst).
	// Event histories are repetitive text, which zstd handles well.
	CompressionZstd Compression = "zstd"
)

// ParseCompression maps a name onto a Compression. Empty means none.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// ConsolidateOptions configure Consolidate.
type ConsolidateOptions struct {
	Compression Compression
}

// ConsolidateResult reports a completed consolidation.
type ConsolidateResult struct {
	EventsConsolidated int    `json:"events_consolidated"`
	OutputPath         string `json:"output_path"`
	SizeBytes          int64  `json:"size_bytes"`
}

// Consolidate merges a run's per-event files into a single line-delimited
// archive, one JSON object per line. The archive is regenerated in full from
// the per-event source of truth on every call, written to a uniquely-named
// temp file and renamed into place only after the whole stream succeeds, so
// the operation is idempotent and a prior archive survives any failure.
func (l *Ledger) Consolidate(runID string, opts ConsolidateOptions) (ConsolidateResult, error) {
	dir, err := l.RunDir(runID)
	if err != nil {
		return ConsolidateResult{}, err
	}
	stream, err := l.Stream(runID)
	if err != nil {
		return ConsolidateResult{}, err
	}

	if opts.Compression == "" {
		opts.Compression = CompressionNone
	}
	outName := "events.jsonl"
	if opts.Compression == CompressionZstd {
		outName += ".zst"
	}
	outPath := filepath.Join(dir, outName)
	tmp := fmt.Sprintf("%s.%d.%d.tmp", outPath, os.Getpid(), time.Now().UnixNano())

	count, err := writeArchive(tmp, opts.Compression, stream)
	if err != nil {
		os.Remove(tmp)
		return ConsolidateResult{}, fmt.Errorf("%w: %v", ErrConsolidationFailed, err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return ConsolidateResult{}, fmt.Errorf("%w: %v", ErrConsolidationFailed, err)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return ConsolidateResult{}, fmt.Errorf("%w: %v", ErrConsolidationFailed, err)
	}
	return ConsolidateResult{EventsConsolidated: count, OutputPath: outPath, SizeBytes: info.Size()}, nil
}

func writeArchive(path string, compression Compression, stream *Stream) (int, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if compression == CompressionZstd {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return 0, err
		}
		w = enc
	}

	count := 0
	je := json.NewEncoder(w)
	for {
		ev, ok := stream.Next()
		if !ok {
			break
		}
		if err := je.Encode(ev); err != nil {
			return 0, err
		}
		count++
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return 0, err
		}
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return count, nil
}
