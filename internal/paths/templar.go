// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
)

// DataDirName is the per-project state directory.
const DataDirName = ".templar"

// DataDir resolves the project-local state directory under root, defaulting
// root to the working directory.
func DataDir(root string) string {
	if root == "" {
		root = "."
	}
	return filepath.Join(filepath.Clean(root), DataDirName)
}

// ConfigFile returns the config file to load: the project-local
// .templar/config.yaml when it exists, otherwise the user-level
// ~/.config/templar/config.yaml. The returned path may not exist yet; a
// default config is written there on first run.
func ConfigFile(root string) string {
	local := filepath.Join(DataDir(root), "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return UserConfigFile()
}

// UserConfigFile returns the user-level config location.
func UserConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DataDirName, "config.yaml")
	}
	return filepath.Join(home, ".config", "templar", "config.yaml")
}

// DefaultTraceFile returns where the file exporter writes when tracing is
// enabled without an explicit file_path.
func DefaultTraceFile(root string) string {
	return filepath.Join(DataDir(root), "traces.jsonl")
}
