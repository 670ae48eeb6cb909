package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/service/checker"
	"github.com/oshokin/dispatch-monitor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// pollInterval overrides poll_interval.
	pollInterval time.Duration
	// alarmCommand runs when an alarm starts.
	alarmCommand string
	// once prints the list and exits.
	once bool
	// logLevel sets the log level.
	logLevel string

	// rootCmd represents the base command for the checker.
	rootCmd = &cobra.Command{
		Use:   "dispatch-checker [server-address]",
		Short: "Watch the alarm list of a running dispatch monitor.",
		Long: `Polls a running dispatch monitor for its alarm list and logs every change.

With --once the current list is printed and the checker exits. With
--alarm-command the given shell command is started each time an alarm begins,
for example to play a sound. The server address argument overrides server_addr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  pollInterval,
				AlarmCommand:  alarmCommand,
				Once:          once,
				Out:           cmd.OutOrStdout(),
			}

			return checker.Run(ctx, options)
		},
	}
)

// Execute runs the dispatch-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&pollInterval, "interval", "i", 0, "polling interval (overrides poll_interval)")
	rootCmd.Flags().StringVarP(&alarmCommand, "alarm-command", "a", "", "shell command started when an alarm begins")
	rootCmd.Flags().BoolVar(&once, "once", false, "print the current alarm list and exit")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", config.DefaultLogLevel, "log level: debug, info, warn, error")
}
