// Package mirror runs the byte-level copy step that makes an archive
// subdirectory's contents exactly match its work counterpart.
package mirror

import "context"

// Mirror makes archivePath's contents exactly match workPath's contents,
// including deleting archive-only files. Implementations are treated as
// atomic per call; partial progress is never inspected.
type Mirror interface {
	Sync(ctx context.Context, workPath, archivePath string) error
}

// SyncCall records one Sync invocation.
type SyncCall struct {
	WorkPath    string
	ArchivePath string
}

// Noop records sync calls without copying anything.
type Noop struct {
	Calls []SyncCall
}

func (n *Noop) Sync(_ context.Context, workPath, archivePath string) error {
	n.Calls = append(n.Calls, SyncCall{WorkPath: workPath, ArchivePath: archivePath})
	return nil
}
