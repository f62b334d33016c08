// Package identity persists the marker that ties a work subdirectory to its
// archive counterpart across renames.
package identity

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerFile is the sentinel file holding a directory's identity marker.
// A directory without one is unmanaged.
const MarkerFile = ".awid"

// Read returns the marker of the directory at dir, or "" when the directory
// is unmanaged. Read errors and empty sentinel files are treated as "no
// marker" so a garbled sentinel only causes a conservative classification.
func Read(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line)
}

// NewMarker generates a fresh marker for path. Uniqueness is best-effort:
// timestamp plus path is enough to not collide within a single run.
func NewMarker(path string) string {
	return time.Now().Format(time.RFC3339Nano) + " " + path
}

// Store writes identity markers. With DryRun set every write is suppressed.
type Store struct {
	DryRun bool
}

// Write creates or overwrites the sentinel file in dir with marker.
func (s *Store) Write(dir, marker string) error {
	if s.DryRun {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, MarkerFile), []byte(marker+"\n"), 0o644)
}
