package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the base directory holding run directories. Empty means
	// DefaultDataDir().
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// HTTPAddr is the listen address for the HTTP API.
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// LogLevel is the minimum log level name (debug|info|warn|error).
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// ListLimit is the default page size for run listings.
	ListLimit int `json:"listLimit" yaml:"listLimit"`
	// DefaultSource is recorded on events whose caller supplied no source.
	DefaultSource string `json:"defaultSource" yaml:"defaultSource"`
	// Alloc tunes the cross-process sequence allocator.
	Alloc AllocDefaults `json:"alloc" yaml:"alloc"`
}

// AllocDefaults captures sequence-allocation retry behavior.
type AllocDefaults struct {
	// MaxAttempts bounds allocation retries before IdAllocationFailed.
	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`
	// BackoffMs is the linear backoff unit between attempts, in milliseconds.
	BackoffMs int `json:"backoffMs" yaml:"backoffMs"`
	// StaleLockMs is the age after which an abandoned allocator temp file is
	// reclaimed, in milliseconds.
	StaleLockMs int `json:"staleLockMs" yaml:"staleLockMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:      "127.0.0.1:8787",
		LogLevel:      "info",
		ListLimit:     20,
		DefaultSource: "runlog",
		Alloc: AllocDefaults{
			MaxAttempts: 10,
			BackoffMs:   50,
			StaleLockMs: 5000,
		},
	}
}

// Load reads configuration from a JSON/JSONC or YAML file (by extension).
// If path is empty, returns defaults. JSON files may carry comments and
// trailing commas; they are stripped before parsing.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(b), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
