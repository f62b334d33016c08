package mirror

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPass(dryRun bool) *RenamePass {
	return NewRenamePass(dryRun, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRenamePass_MatchesOnSize(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	writeFile(t, work, "renamed.txt", "ten bytes!")
	writeFile(t, arch, "original.txt", "0123456789")

	require.NoError(t, testPass(false).Run(work, arch))

	assert.FileExists(t, filepath.Join(arch, "renamed.txt"))
	assert.NoFileExists(t, filepath.Join(arch, "original.txt"))
}

func TestRenamePass_SizeMismatchLeavesFiles(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	writeFile(t, work, "renamed.txt", "longer content here")
	writeFile(t, arch, "original.txt", "short")

	require.NoError(t, testPass(false).Run(work, arch))

	assert.NoFileExists(t, filepath.Join(arch, "renamed.txt"))
	assert.FileExists(t, filepath.Join(arch, "original.txt"))
}

func TestRenamePass_SharedNamesAreNotCandidates(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	// same name on both sides, even with different sizes, is the mirror
	// step's problem
	writeFile(t, work, "a.txt", "work version")
	writeFile(t, arch, "a.txt", "archive")
	writeFile(t, arch, "b.txt", "work version") // same size as work a.txt

	require.NoError(t, testPass(false).Run(work, arch))

	assert.FileExists(t, filepath.Join(arch, "a.txt"))
	assert.FileExists(t, filepath.Join(arch, "b.txt"))
}

func TestRenamePass_Recurses(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	workSub := filepath.Join(work, "sub")
	archSub := filepath.Join(arch, "sub")
	require.NoError(t, os.MkdirAll(workSub, 0o755))
	require.NoError(t, os.MkdirAll(archSub, 0o755))
	writeFile(t, workSub, "renamed.txt", "ten bytes!")
	writeFile(t, archSub, "original.txt", "0123456789")

	require.NoError(t, testPass(false).Run(work, arch))

	assert.FileExists(t, filepath.Join(archSub, "renamed.txt"))
	assert.NoFileExists(t, filepath.Join(archSub, "original.txt"))
}

func TestRenamePass_MissingArchiveDirIsNoop(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a.txt", "x")
	require.NoError(t, testPass(false).Run(work, filepath.Join(t.TempDir(), "missing")))
}

func TestRenamePass_DryRun(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	writeFile(t, work, "renamed.txt", "ten bytes!")
	writeFile(t, arch, "original.txt", "0123456789")

	require.NoError(t, testPass(true).Run(work, arch))

	assert.FileExists(t, filepath.Join(arch, "original.txt"))
	assert.NoFileExists(t, filepath.Join(arch, "renamed.txt"))
}
