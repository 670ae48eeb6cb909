package checker

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/service/common"
	"github.com/oshokin/dispatch-monitor/internal/service/signal"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval overrides the configured interval between checks.
	PollInterval time.Duration
	// AlarmCommand is run through the shell when an alarm starts.
	AlarmCommand string
	// Once prints the current alarm list to Out and exits.
	Once bool
	// Out receives the list in Once mode. Defaults to stdout.
	Out io.Writer
}

// alarmSource is the part of the monitor client the checker needs.
type alarmSource interface {
	GetAlarms(ctx context.Context) (*monitor.AlarmView, error)
}

// Run polls the alarm list until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dispatch-checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pollInterval := cfg.PollInterval
	if opts.PollInterval > 0 {
		pollInterval = opts.PollInterval
	}

	// Command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	} else {
		clientOptions = append(clientOptions, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, serverAddress, clientOptions...)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	if opts.Once {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}

		return printAlarms(ctx, client, out)
	}

	logger.InfoKV(ctx, "Polling alarm list", "server_address", serverAddress, "interval", pollInterval.String())

	w := &watcher{
		command: opts.AlarmCommand,
		start:   signal.Start,
	}

	return poll(ctx, client, w, pollInterval)
}

// poll checks immediately and then on every tick.
func poll(ctx context.Context, source alarmSource, w *watcher, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.check(ctx, source); err != nil {
			logger.ErrorKV(ctx, "Check alarms failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// printAlarms writes the current list, one line per entry.
func printAlarms(ctx context.Context, source alarmSource, out io.Writer) error {
	view, err := source.GetAlarms(ctx)
	if err != nil {
		return err
	}

	for _, line := range view.Lines {
		if _, err = fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("write alarm list: %w", err)
		}
	}

	return nil
}

// watcher remembers the last seen list.
type watcher struct {
	// command is started on every alarm start. Empty disables it.
	command string
	// start launches command.
	start func(ctx context.Context, command string) error
	// lines is the last logged list.
	lines []string
	// active is set while the last list held alarms.
	active bool
}

// check fetches the list and logs it when it differs from the last one.
func (w *watcher) check(ctx context.Context, source alarmSource) error {
	view, err := source.GetAlarms(ctx)
	if err != nil {
		return err
	}

	if slices.Equal(view.Lines, w.lines) {
		return nil
	}

	w.lines = view.Lines

	if view.Normal {
		logger.Info(ctx, alarm.TextNormal)
	} else {
		logger.WarnKV(ctx, "Alarm list changed", "active_since", view.ActiveSince.Format(time.RFC3339), "entries", len(view.Entries))

		for _, line := range view.Lines {
			if line != "" {
				logger.Warnf(ctx, "  %s", line)
			}
		}
	}

	started := !view.Normal && !w.active
	w.active = !view.Normal

	if started && w.command != "" {
		if err = w.start(ctx, w.command); err != nil {
			return fmt.Errorf("alarm command: %w", err)
		}
	}

	return nil
}
