package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// base flags: archive mode, delete files that no longer exist on the work side
var rsyncBaseArgs = []string{"-a", "--delete"}

// Rsync shells out to the rsync binary. ExtraArgs are forwarded verbatim
// before the source and destination paths.
type Rsync struct {
	DryRun    bool
	Verbose   bool
	ExtraArgs []string

	log *slog.Logger
}

func NewRsync(dryRun, verbose bool, extraArgs []string, log *slog.Logger) *Rsync {
	if log == nil {
		log = slog.Default()
	}
	return &Rsync{
		DryRun:    dryRun,
		Verbose:   verbose,
		ExtraArgs: extraArgs,
		log:       log,
	}
}

func (r *Rsync) args(workPath, archivePath string) []string {
	args := slices.Clone(rsyncBaseArgs)
	if r.DryRun {
		args = append(args, "--dry-run")
	}
	if r.Verbose {
		args = append(args, "-v")
	}
	args = append(args, r.ExtraArgs...)
	// trailing slash so rsync copies workPath's contents, not workPath itself
	args = append(args, workPath+"/", archivePath)
	return args
}

func (r *Rsync) Sync(ctx context.Context, workPath, archivePath string) error {
	args := r.args(workPath, archivePath)
	r.log.Info("rsync " + strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "rsync", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rsync %s -> %s: %w", workPath, archivePath, err)
	}
	return nil
}
