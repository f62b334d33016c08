package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openarchive/workarc/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_NewDirectoryGetsMarkedAndPlanned(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "alpha"), 0o755))

	out, code := runCLI(t, work, arch, "--no-mirror")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, stripANSI(out), `"alpha" : NEW`)
	assert.NotEmpty(t, identity.Read(filepath.Join(work, "alpha")))
}

func TestCLI_DryRunMutatesNothing(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "alpha"), 0o755))

	out, code := runCLI(t, work, arch, "--dry-run", "--no-mirror")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, stripANSI(out), `"alpha" : NEW`)
	assert.Empty(t, identity.Read(filepath.Join(work, "alpha")))
}

func TestCLI_ReportSkippedSetsExitCode(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	// unmarked on both sides is a conflict the default run only logs
	require.NoError(t, os.MkdirAll(filepath.Join(work, "d"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(arch, "d"), 0o755))

	out, code := runCLI(t, work, arch, "--no-mirror")
	assert.Equal(t, 0, code, out)

	out, code = runCLI(t, work, arch, "--no-mirror", "-e")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, stripANSI(out), "Skipped directories")
}

func TestCLI_SingleMark(t *testing.T) {
	work, arch := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "d"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(arch, "d"), 0o755))

	out, code := runCLI(t, work, arch, "-m", "d")
	assert.Equal(t, 0, code, out)

	id := identity.Read(filepath.Join(work, "d"))
	assert.NotEmpty(t, id)
	assert.Equal(t, id, identity.Read(filepath.Join(arch, "d")))
}

func TestCLI_InvalidRootFails(t *testing.T) {
	out, code := runCLI(t, filepath.Join(t.TempDir(), "missing"), t.TempDir(), "--no-mirror")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, stripANSI(out), "not a directory")
}
