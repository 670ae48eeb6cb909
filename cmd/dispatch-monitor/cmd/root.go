package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/service/server"
	"github.com/oshokin/dispatch-monitor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// snapshotFile is where the alarm-active state is persisted.
	snapshotFile string
	// logLevel overrides the configured log level.
	logLevel string
	// allowMultiple disables the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the monitor.
	rootCmd = &cobra.Command{
		Use:   "dispatch-monitor [listen-address]",
		Short: "Run the dispatch station monitor and serve its alarm list over gRPC.",
		Long: `Starts the dispatch station monitor.

The monitor keeps the state of up to 32 groups of field points, decodes the
status frames pushed by the transport, maintains the alarm list and exposes it
over gRPC. Groups and point names are read from the configuration file and can
be re-read at runtime with the Reload call.

Only the port from server_addr is used for listening (e.g., :7010). A listen
address argument overrides it (e.g., :9090, 0.0.0.0:7010). The time the current
alarm started is persisted so that a restart does not reset it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				SnapshotFile:  snapshotFile,
				LogLevel:      logLevel,
				AllowMultiple: allowMultiple,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the dispatch-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&snapshotFile, "snapshot-file", "s", "", "path to persist the alarm snapshot (overrides snapshot_file)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (overrides log_level)")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")
}
