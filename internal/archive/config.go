package archive

import (
	"fmt"

	"github.com/openarchive/workarc/internal/utils"
)

// Config carries one run's settings, assembled by the CLI from flags, env
// and the optional config file.
type Config struct {
	WorkDir    string
	ArchiveDir string

	DryRun        bool
	Verbose       bool
	MarkNew       bool
	Mark          string
	RenamePass    bool
	ReportSkipped bool

	// MirrorArgs are forwarded verbatim to the mirror step.
	MirrorArgs []string

	// NoMirror skips the mirror invocation. Test hook for exercising the
	// rename paths without rsync.
	NoMirror bool
}

// Validate resolves both root paths and checks they are directories.
func (c *Config) Validate() error {
	for _, p := range []*string{&c.WorkDir, &c.ArchiveDir} {
		resolved, err := utils.ResolvePath(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
		if !utils.DirExists(resolved) {
			return fmt.Errorf("%w: %s", ErrNotADirectory, resolved)
		}
		*p = resolved
	}
	return nil
}
