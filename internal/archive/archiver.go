package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/openarchive/workarc/internal/mirror"
)

const lockFile = ".workarc.lock"

var ErrArchiveLocked = errors.New("archive locked by another process")

// Archiver runs a full pass: lock the archive, reconcile, then hand each
// planned pair to the mirror step. Runs assume exclusive access to both
// roots; the lock enforces that against other workarc instances.
type Archiver struct {
	cfg    *Config
	mirror mirror.Mirror
	flock  *flock.Flock
	log    *slog.Logger
}

// New builds an Archiver for a validated config. A nil logger falls back to
// slog.Default.
func New(cfg *Config, m mirror.Mirror, log *slog.Logger) *Archiver {
	if log == nil {
		log = slog.Default()
	}
	return &Archiver{
		cfg:    cfg,
		mirror: m,
		flock:  flock.New(filepath.Join(cfg.ArchiveDir, lockFile)),
		log:    log,
	}
}

// Run executes one pass. In single-mark mode it marks the named pair and
// returns an empty plan without scanning. The returned plan is complete even
// in dry-run mode; only the mutating calls are suppressed.
func (a *Archiver) Run(ctx context.Context) (*Plan, error) {
	rec, err := NewReconciler(a.cfg.WorkDir, a.cfg.ArchiveDir, Options{
		DryRun:  a.cfg.DryRun,
		MarkNew: a.cfg.MarkNew,
	}, a.log)
	if err != nil {
		return nil, err
	}

	if err := a.lock(); err != nil {
		return nil, err
	}
	defer a.unlock()

	if a.cfg.Mark != "" {
		if err := rec.Mark(a.cfg.Mark); err != nil {
			return nil, err
		}
		a.log.Info("marked", "dir", a.cfg.Mark)
		return &Plan{}, nil
	}

	a.log.Info("archiving", "from", a.cfg.WorkDir, "to", a.cfg.ArchiveDir)
	plan, err := rec.Reconcile()
	if err != nil {
		return nil, err
	}

	renames := mirror.NewRenamePass(a.cfg.DryRun, a.log)
	for _, item := range plan.Items {
		if a.cfg.RenamePass {
			if err := renames.Run(item.WorkPath, item.ArchivePath); err != nil {
				return nil, err
			}
		}
		if a.cfg.NoMirror {
			a.log.Info("skipping mirror step", "work", item.WorkPath)
			continue
		}
		if err := a.mirror.Sync(ctx, item.WorkPath, item.ArchivePath); err != nil {
			return nil, err
		}
	}

	a.log.Info("archive pass complete", "synced", len(plan.Items), "skipped", len(plan.Skipped))
	return plan, nil
}

func (a *Archiver) lock() error {
	locked, err := a.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock archive: %w", err)
	}
	if !locked {
		return ErrArchiveLocked
	}
	return nil
}

func (a *Archiver) unlock() {
	// if this process doesn't hold the lock, leave the lock file alone
	if !a.flock.Locked() {
		return
	}
	if err := a.flock.Unlock(); err != nil {
		a.log.Warn("failed to unlock archive", "error", err)
		return
	}
	os.Remove(a.flock.Path())
}
