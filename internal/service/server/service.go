package server

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/engine"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// service adds configuration reloads on top of the engine.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	*engine.Engine

	// configPath is re-read on every reload.
	configPath string
	// load reads and validates the configuration.
	load func(path string) (*config.Config, error)
}

// newService wraps an engine.
func newService(e *engine.Engine, configPath string) *service {
	return &service{
		Engine:     e,
		configPath: configPath,
		load:       config.Load,
	}
}

// ReloadConfig re-reads the group configuration and rebuilds the state tree.
// An invalid file leaves the current tree in place.
func (s *service) ReloadConfig(ctx context.Context) (*alarm.Report, error) {
	cfg, err := s.load(s.configPath)
	if err != nil {
		logger.WarnKV(ctx, "Configuration reload rejected", "config_path", s.configPath, "error", err)

		return nil, fmt.Errorf("%w: %w", monitor.ErrInvalidConfig, err)
	}

	logger.InfoKV(ctx, "Configuration reloaded", "config_path", s.configPath, "groups", len(cfg.Groups))

	return s.Reload(ctx, tree.New(cfg.TreeGroups()))
}

// logSignaler reports alarm transitions to the log.
type logSignaler struct {
	// ctx carries the service logger.
	ctx context.Context //nolint:containedctx // Signaler methods have no context parameter.
}

// Raise logs the start of an alarm.
func (s logSignaler) Raise(since time.Time) {
	logger.WarnKV(s.ctx, "ALARM raised", "active_since", since.Format(time.RFC3339))
}

// Clear logs the end of an alarm.
func (s logSignaler) Clear() {
	logger.Info(s.ctx, "Alarm cleared, parameters are normal")
}
