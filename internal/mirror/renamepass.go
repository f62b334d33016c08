package mirror

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/openarchive/workarc/internal/utils"
)

// RenamePass detects work-side file renames before the mirror step and
// performs a cheap rename on the archive copy instead of letting the mirror
// delete and recopy it. Files are matched on size alone across the set of
// names present on exactly one side, so a collision can mis-pair files; the
// mirror step that follows still makes the trees match either way.
type RenamePass struct {
	DryRun bool

	log *slog.Logger
}

func NewRenamePass(dryRun bool, log *slog.Logger) *RenamePass {
	if log == nil {
		log = slog.Default()
	}
	return &RenamePass{DryRun: dryRun, log: log}
}

// Run walks workPath and archivePath in parallel, recursing into
// subdirectories that exist on both sides, and renames size-matched files.
func (p *RenamePass) Run(workPath, archivePath string) error {
	if !utils.DirExists(archivePath) {
		return nil
	}

	workEntries, err := os.ReadDir(workPath)
	if err != nil {
		return err
	}
	archiveEntries, err := os.ReadDir(archivePath)
	if err != nil {
		return err
	}

	for _, e := range workEntries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(archivePath, e.Name())
		if utils.DirExists(sub) {
			if err := p.Run(filepath.Join(workPath, e.Name()), sub); err != nil {
				return err
			}
		}
	}

	workSizes, err := fileSizes(workPath, workEntries)
	if err != nil {
		return err
	}
	archiveSizes, err := fileSizes(archivePath, archiveEntries)
	if err != nil {
		return err
	}

	// candidates are files present by name on exactly one side
	sizeToArchive := map[int64]string{}
	for name, size := range archiveSizes {
		if _, ok := workSizes[name]; !ok {
			sizeToArchive[size] = filepath.Join(archivePath, name)
		}
	}
	if len(sizeToArchive) == 0 {
		return nil
	}

	// ReadDir order keeps the pass deterministic
	for _, e := range workEntries {
		name := e.Name()
		size, ok := workSizes[name]
		if !ok {
			continue
		}
		if _, ok := archiveSizes[name]; ok {
			continue
		}
		src, ok := sizeToArchive[size]
		if !ok {
			continue
		}

		dst := filepath.Join(archivePath, name)
		p.log.Debug("renaming archive file",
			"from", src,
			"to", dst,
			"size", humanize.Bytes(uint64(size)),
			"dry_run", p.DryRun,
		)
		if !p.DryRun {
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("rename %s -> %s: %w", src, dst, err)
			}
		}
		delete(sizeToArchive, size)
	}

	return nil
}

func fileSizes(dir string, entries []os.DirEntry) (map[string]int64, error) {
	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		sizes[e.Name()] = info.Size()
	}
	return sizes, nil
}
