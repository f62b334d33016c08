// Package archive reconciles the subdirectories of a working directory with
// their copies in an archive directory. The archive is a superset of the work
// tree: the work side owns the subdirectories it has, anything else in the
// archive is left alone.
package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openarchive/workarc/internal/identity"
	"github.com/openarchive/workarc/internal/utils"
)

// Action classifies what the reconciler decided for one work subdirectory.
type Action string

const (
	ActionNew          Action = "NEW"
	ActionNewConflict  Action = "NEW_CONFLICT_SKIP"
	ActionNewOverwrite Action = "NEW_CONFLICT_OVERWRITE"
	ActionResync       Action = "RESYNC"
	ActionRenamed      Action = "RENAMED"
	ActionRestore      Action = "RESTORE"
	ActionConflictSkip Action = "CONFLICT_SKIP"
)

var (
	ErrNotADirectory     = errors.New("not a directory")
	ErrDestinationExists = errors.New("rename destination already exists")
)

// SyncItem pairs a work subdirectory with the archive path the mirror step
// must bring up to date.
type SyncItem struct {
	WorkPath    string
	ArchivePath string
}

// SkippedItem records a work subdirectory the reconciler declined to sync.
type SkippedItem struct {
	WorkPath string
	Reason   string
}

// Decision is the per-subdirectory outcome of a scan, in scan order.
type Decision struct {
	Name        string
	Action      Action
	Detail      string
	RenamedFrom string
}

// Plan is the result of a reconcile run. Items and Skipped follow the
// deterministic work-scan order (lexicographic by subdirectory name).
type Plan struct {
	Items     []SyncItem
	Skipped   []SkippedItem
	Decisions []Decision
}

// Options control a reconcile run.
type Options struct {
	// DryRun suppresses identity writes and archive renames while producing
	// the same decisions a real run would.
	DryRun bool
	// MarkNew marks and syncs unmarked work subdirectories that collide with
	// a same-named archive directory, instead of skipping them.
	MarkNew bool
}

// Reconciler classifies each immediate work subdirectory against the archive
// and emits the sync plan for the mirror step. It assumes exclusive access to
// both roots for the duration of a run.
type Reconciler struct {
	workRoot    string
	archiveRoot string
	opts        Options
	ids         *identity.Store
	log         *slog.Logger
}

// NewReconciler validates both roots and returns a Reconciler. A nil logger
// falls back to slog.Default.
func NewReconciler(workRoot, archiveRoot string, opts Options, log *slog.Logger) (*Reconciler, error) {
	if log == nil {
		log = slog.Default()
	}
	for _, dir := range []string{workRoot, archiveRoot} {
		if !utils.DirExists(dir) {
			return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
		}
	}
	return &Reconciler{
		workRoot:    workRoot,
		archiveRoot: archiveRoot,
		opts:        opts,
		ids:         &identity.Store{DryRun: opts.DryRun},
		log:         log,
	}, nil
}

// Mark marks the named work subdirectory with a fresh identity and, when a
// same-named archive subdirectory exists, marks it with the same identity so
// the pair syncs on the next run. Used to adopt a pre-existing archive copy
// that would otherwise be skipped as a conflict.
func (r *Reconciler) Mark(name string) error {
	workPath := filepath.Join(r.workRoot, name)
	if !utils.DirExists(workPath) {
		return fmt.Errorf("%w: %s", ErrNotADirectory, workPath)
	}

	paths := []string{workPath}
	if archivePath := filepath.Join(r.archiveRoot, name); utils.DirExists(archivePath) {
		paths = append(paths, archivePath)
	}

	marker := identity.NewMarker(workPath)
	for _, p := range paths {
		r.log.Debug("marking", "path", filepath.Join(p, identity.MarkerFile), "dry_run", r.opts.DryRun)
		if err := r.ids.Write(p, marker); err != nil {
			return fmt.Errorf("failed to mark %s: %w", p, err)
		}
	}
	return nil
}

// Reconcile scans both roots and classifies every immediate work
// subdirectory. Side effects are confined to identity writes and one archive
// rename per RENAMED entry; no content is copied here.
func (r *Reconciler) Reconcile() (*Plan, error) {
	index, err := r.buildIndex()
	if err != nil {
		return nil, err
	}

	names, err := subdirNames(r.workRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", r.workRoot, err)
	}

	r.log.Info("scanning", "work_dir", r.workRoot)
	plan := &Plan{}
	for _, name := range names {
		d, archivePath, err := r.classify(name, index)
		if err != nil {
			return nil, err
		}

		r.log.Info(fmt.Sprintf("%q : %s", d.Name, d.Detail))
		plan.Decisions = append(plan.Decisions, d)
		if archivePath != "" {
			plan.Items = append(plan.Items, SyncItem{
				WorkPath:    filepath.Join(r.workRoot, name),
				ArchivePath: archivePath,
			})
		} else {
			plan.Skipped = append(plan.Skipped, SkippedItem{
				WorkPath: filepath.Join(r.workRoot, name),
				Reason:   d.Detail,
			})
		}
	}

	return plan, nil
}

// buildIndex maps identity markers to archive subdirectory paths. When two
// archive subdirectories share a marker the one encountered later wins; the
// original tool behaved this way and existing archives depend on it.
func (r *Reconciler) buildIndex() (map[string]string, error) {
	names, err := subdirNames(r.archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", r.archiveRoot, err)
	}

	index := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(r.archiveRoot, name)
		if id := identity.Read(path); id != "" {
			r.log.Debug("known archive directory", "path", path)
			index[id] = path
		}
	}
	return index, nil
}

// classify decides the action for one work subdirectory. It returns the
// archive target path for the mirror step, or "" when the entry is skipped.
func (r *Reconciler) classify(name string, index map[string]string) (Decision, string, error) {
	workPath := filepath.Join(r.workRoot, name)
	sameNamePath := filepath.Join(r.archiveRoot, name)

	workID := identity.Read(workPath)
	if workID == "" {
		if !utils.PathExists(sameNamePath) {
			if err := r.mark(workPath); err != nil {
				return Decision{}, "", err
			}
			return Decision{Name: name, Action: ActionNew, Detail: "NEW"}, sameNamePath, nil
		}
		if r.opts.MarkNew {
			if err := r.mark(workPath, sameNamePath); err != nil {
				return Decision{}, "", err
			}
			d := Decision{Name: name, Action: ActionNewOverwrite, Detail: "NEW, overwriting directory of same name in archive"}
			return d, sameNamePath, nil
		}
		d := Decision{Name: name, Action: ActionNewConflict, Detail: "SKIPPING: new, but exists in archive. Mark with --mark to sync in future"}
		return d, "", nil
	}

	knownPath, known := index[workID]
	if known {
		if filepath.Base(knownPath) == name {
			return Decision{Name: name, Action: ActionResync, Detail: "re-syncing"}, knownPath, nil
		}
		// renamed on the work side; rename the archive copy to match before
		// the mirror step so both sides operate on the same name
		oldName := filepath.Base(knownPath)
		if utils.PathExists(sameNamePath) {
			return Decision{}, "", fmt.Errorf("%w: cannot rename %s to %s", ErrDestinationExists, knownPath, sameNamePath)
		}
		if !r.opts.DryRun {
			if err := os.Rename(knownPath, sameNamePath); err != nil {
				return Decision{}, "", fmt.Errorf("failed to rename %s: %w", knownPath, err)
			}
		}
		d := Decision{
			Name:        name,
			Action:      ActionRenamed,
			Detail:      fmt.Sprintf("renamed from %q, archive to be updated", oldName),
			RenamedFrom: oldName,
		}
		return d, sameNamePath, nil
	}

	if utils.PathExists(sameNamePath) {
		// the same-named archive directory is unrelated or lost its marker
		d := Decision{Name: name, Action: ActionConflictSkip, Detail: "SKIPPING: marked but conflicts with archive. Re-mark with --mark to overwrite"}
		return d, "", nil
	}
	return Decision{Name: name, Action: ActionRestore, Detail: "RESTORING to archive"}, sameNamePath, nil
}

// mark writes one freshly generated marker to every given directory.
func (r *Reconciler) mark(paths ...string) error {
	marker := identity.NewMarker(paths[0])
	for _, p := range paths {
		r.log.Debug("marking", "path", filepath.Join(p, identity.MarkerFile), "dry_run", r.opts.DryRun)
		if err := r.ids.Write(p, marker); err != nil {
			return fmt.Errorf("failed to mark %s: %w", p, err)
		}
	}
	return nil
}

// subdirNames lists the immediate subdirectories of root, sorted by name.
func subdirNames(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
