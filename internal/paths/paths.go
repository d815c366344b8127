package paths

import (
	"os"
	"path/filepath"
)

func DefaultStateDir() string {
	if x := os.Getenv("XDG_STATE_HOME"); x != "" {
		return filepath.Join(x, "dockhand")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "dockhand")
}

// DefaultJobsDBPath is where job history is persisted between runs.
func DefaultJobsDBPath() string { return filepath.Join(DefaultStateDir(), "jobs.db") }
