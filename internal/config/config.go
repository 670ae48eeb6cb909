package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// Group is one configured group slot.
type Group struct {
	// Name is the group name shown in alarms.
	Name string `yaml:"name"`
	// Points are the point names in wire order.
	Points []string `yaml:"points"`
}

// Config holds the station configuration.
type Config struct {
	// ServerAddress is the gRPC address of the monitor.
	ServerAddress string `yaml:"server_addr"`
	// Timeout bounds RPC calls made by clients.
	Timeout time.Duration `yaml:"timeout"`
	// SnapshotFile is where the monitor keeps its alarm-active state.
	SnapshotFile string `yaml:"snapshot_file"`
	// LogLevel is the minimum log level.
	LogLevel string `yaml:"log_level"`
	// PollInterval is how often the checker asks the monitor for alarms.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Groups are the configured group slots, slot 0 first.
	Groups []Group `yaml:"groups"`
}

const (
	// DefaultConfigFilename is the default configuration file name.
	DefaultConfigFilename = "dispatch-monitor.yaml"

	// DefaultSnapshotFilename is the default alarm snapshot file name.
	DefaultSnapshotFilename = "dispatch-monitor-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the default checker polling interval.
	DefaultPollInterval = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission of files written by the binaries.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when the server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errTooManyGroups is returned when more groups than slots are configured.
	errTooManyGroups = errors.New("too many groups")
	// errGroupName is returned for a group without a name.
	errGroupName = errors.New("group name must be provided")
	// errTooManyPoints is returned for a group with more points than addressable.
	errTooManyPoints = errors.New("too many points")
	// errPointName is returned for a point without a name.
	errPointName = errors.New("point name must be provided")
)

// Load reads the configuration from path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the configuration and fills in defaults.
// Every problem found is reported, not just the first one.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	var err error

	if cfg.ServerAddress == "" {
		err = multierr.Append(err, errServerAddressRequired)
	} else if _, resolveErr := net.ResolveTCPAddr("tcp", cfg.ServerAddress); resolveErr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid server address: %w", resolveErr))
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	} else if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		err = multierr.Append(err, fmt.Errorf("invalid log level %q", cfg.LogLevel))
	}

	if len(cfg.Groups) > station.MaxGroups {
		err = multierr.Append(err, fmt.Errorf("%w: %d configured, %d slots", errTooManyGroups, len(cfg.Groups), station.MaxGroups))
	}

	for i, group := range cfg.Groups {
		err = multierr.Append(err, validateGroup(i, &group))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.SnapshotFile == "" {
		cfg.SnapshotFile = DefaultSnapshotFilename
	}

	return err
}

// validateGroup checks one group slot.
func validateGroup(slot int, group *Group) error {
	var err error

	if group.Name == "" {
		err = multierr.Append(err, fmt.Errorf("group %d: %w", slot+1, errGroupName))
	}

	if len(group.Points) > station.MaxPointsPerGroup {
		err = multierr.Append(err, fmt.Errorf("group %d: %w: %d configured, %d addressable",
			slot+1, errTooManyPoints, len(group.Points), station.MaxPointsPerGroup))
	}

	for j, name := range group.Points {
		if name == "" {
			err = multierr.Append(err, fmt.Errorf("group %d point %d: %w", slot+1, j+1, errPointName))
		}
	}

	return err
}

// TreeGroups converts the configured groups into state tree input.
func (c *Config) TreeGroups() []tree.GroupConfig {
	groups := make([]tree.GroupConfig, len(c.Groups))
	for i, group := range c.Groups {
		groups[i] = tree.GroupConfig{
			Name:   group.Name,
			Points: append([]string(nil), group.Points...),
		}
	}

	return groups
}
