package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Len(t, KV(), 6)
}

// TestResolve fills defaults from VCS settings and shortens the revision.
func TestResolve(t *testing.T) {
	t.Parallel()

	info := resolve([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "4f2a9c81d0e3b7a6"},
		{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
		{Key: "GOOS", Value: "linux"},
	})

	require.Equal(t, Version, info.Version)

	if Commit == "none" {
		require.Equal(t, "4f2a9c8", info.Commit)
	}

	if BuildTime == "unknown" {
		require.Equal(t, "2026-10-01T08:00:00Z", info.BuildTime)
	}

	require.Equal(t, Info{Version: Version, Commit: Commit, BuildTime: BuildTime}, resolve(nil))
}

// TestAttachCobraVersionCommand prints the full version from the subcommand.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "dispatch-monitor"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "version: "+Version)
}
