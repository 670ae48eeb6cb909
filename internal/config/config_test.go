package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// TestValidate checks required fields, defaults and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	require.ErrorIs(t, Validate(new(Config)), errServerAddressRequired)

	// Bad address.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Defaults are filled in.
	cfg := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, DefaultSnapshotFilename, cfg.SnapshotFile)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestValidate_ReportsEveryGroupProblem ensures all group errors are aggregated.
func TestValidate_ReportsEveryGroupProblem(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
		LogLevel:      "loud",
		Groups: []Group{
			{Name: "", Points: []string{"A"}},
			{Name: "Корпус 2", Points: []string{"A", ""}},
			{Name: "Корпус 3", Points: make([]string, 128)},
		},
	}
	for i := range cfg.Groups[2].Points {
		cfg.Groups[2].Points[i] = "p"
	}

	err := Validate(cfg)
	require.Error(t, err)
	require.ErrorIs(t, err, errGroupName)
	require.ErrorIs(t, err, errPointName)
	require.ErrorIs(t, err, errTooManyPoints)
	require.Len(t, multierr.Errors(err), 4)
	require.True(t, strings.Contains(err.Error(), "loud"))
}

// TestValidate_TooManyGroups rejects more groups than slots.
func TestValidate_TooManyGroups(t *testing.T) {
	t.Parallel()

	cfg := &Config{ServerAddress: "127.0.0.1:50051", Groups: make([]Group, 33)}
	for i := range cfg.Groups {
		cfg.Groups[i].Name = "g"
	}

	require.ErrorIs(t, Validate(cfg), errTooManyGroups)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		Groups: []Group{
			{Name: "Корпус 1", Points: []string{"Вход", "Холл"}},
			{Name: "Корпус 2", Points: []string{"Пост"}},
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	groups := loaded.TreeGroups()
	require.Len(t, groups, 2)
	require.Equal(t, "Корпус 2", groups[1].Name)
	require.Equal(t, []string{"Вход", "Холл"}, groups[0].Points)

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.ErrorIs(t, Save(path, nil), errConfigIsNotSet)
}

// TestLoad_ParsesDurations reads a hand-written file with duration strings.
func TestLoad_ParsesDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := `server_addr: 127.0.0.1:50051
timeout: 2s
poll_interval: 1m
groups:
  - name: Корпус 1
    points: [Вход]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "2s", cfg.Timeout.String())
	require.Equal(t, "1m0s", cfg.PollInterval.String())
	require.Len(t, cfg.Groups, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
