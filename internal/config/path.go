package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir picks where run directories live when no dataDir is
// configured. Run directories are a public on-disk contract read by other
// tools, so the location must be stable across invocations on the same host.
//
// Resolution order: $XDG_DATA_HOME/runlog, /var/lib/runlog where it exists,
// the platform application-support directory, then ~/.runlog. The first two
// need no home directory, which keeps daemon-style invocations working.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "runlog")
	}
	if isDir("/var/lib") {
		return "/var/lib/runlog"
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		// No home and no system dir: keep runs next to the caller.
		return "./runlog"
	}
	switch {
	case isDir(filepath.Join(homeDir, "Library")):
		return filepath.Join(homeDir, "Library", "Application Support", "Runlog")
	case isDir(filepath.Join(homeDir, "AppData")):
		return filepath.Join(homeDir, "AppData", "Local", "Runlog")
	}
	return filepath.Join(homeDir, ".runlog")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
