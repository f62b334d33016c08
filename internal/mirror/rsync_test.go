package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRsyncArgs(t *testing.T) {
	cases := []struct {
		name      string
		dryRun    bool
		verbose   bool
		extraArgs []string
		want      []string
	}{
		{
			name: "defaults",
			want: []string{"-a", "--delete", "/w/a/", "/ar/a"},
		},
		{
			name:   "dry run",
			dryRun: true,
			want:   []string{"-a", "--delete", "--dry-run", "/w/a/", "/ar/a"},
		},
		{
			name:    "verbose",
			verbose: true,
			want:    []string{"-a", "--delete", "-v", "/w/a/", "/ar/a"},
		},
		{
			name:      "forwarded args come before the paths",
			extraArgs: []string{"--no-p", "--exclude=*.tmp"},
			want:      []string{"-a", "--delete", "--no-p", "--exclude=*.tmp", "/w/a/", "/ar/a"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRsync(tc.dryRun, tc.verbose, tc.extraArgs, nil)
			assert.Equal(t, tc.want, r.args("/w/a", "/ar/a"))
		})
	}
}

func TestNoopRecordsCalls(t *testing.T) {
	n := &Noop{}
	assert.NoError(t, n.Sync(context.Background(), "/w/a", "/ar/a"))
	assert.NoError(t, n.Sync(context.Background(), "/w/b", "/ar/b"))
	assert.Equal(t, []SyncCall{
		{WorkPath: "/w/a", ArchivePath: "/ar/a"},
		{WorkPath: "/w/b", ArchivePath: "/ar/b"},
	}, n.Calls)
}
