package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/mitchellh/go-ps"
	"google.golang.org/grpc"

	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/engine"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/repository/snapshot"
	"github.com/oshokin/dispatch-monitor/internal/tree"
	"github.com/oshokin/dispatch-monitor/internal/version"
)

// Options controls the monitor server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// SnapshotFile specifies the path to persist the alarm snapshot.
	SnapshotFile string
	// LogLevel overrides the configured log level.
	LogLevel string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// errInvalidLogLevel is returned for an unparsable --log-level value.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Run starts the engine and the gRPC server and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dispatch-monitor")

	logger.InfoKV(ctx, "Starting dispatch monitor", version.KV()...)

	if !opts.AllowMultiple {
		if err := ensureSingleInstance(ps.Processes, os.Args[0]); err != nil {
			return err
		}
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyLogLevel(settings.LogLevel, opts.LogLevel); err != nil {
		return err
	}

	snapshotFile := settings.SnapshotFile
	if opts.SnapshotFile != "" {
		snapshotFile = opts.SnapshotFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	mon := alarm.NewMonitor(
		tree.New(settings.TreeGroups()),
		alarm.WithSignaler(logSignaler{ctx: ctx}),
	)
	eng := engine.New(mon, engine.WithRepository(snapshot.NewFileRepository(snapshotFile)))

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	return serve(ctx, lis, eng, newService(eng, opts.ConfigPath), snapshotFile)
}

// serve runs the engine and the gRPC server on lis until ctx is canceled.
func serve(ctx context.Context, lis net.Listener, eng *engine.Engine, svc monitor.Service, snapshotFile string) error {
	// A Serve failure cancels ctx so the engine and shutdown goroutines exit too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineDone := make(chan struct{})

	go func() {
		defer close(engineDone)

		if err := eng.Run(ctx); err != nil {
			logger.ErrorKV(ctx, "Engine failed", "error", err)
		}
	}()

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(monitor.LoggingInterceptor))
	monitor.Register(grpcServer, monitor.NewServer(svc))

	logger.InfoKV(ctx, "Dispatch monitor listening", "listen_address", lis.Addr().String(), "snapshot_file", snapshotFile)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)
	if errors.Is(serveErr, grpc.ErrServerStopped) {
		serveErr = nil
	}

	cancel()
	<-done
	<-engineDone

	if serveErr != nil {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// applyLogLevel sets the global log level; override wins over configured.
func applyLogLevel(configured, override string) error {
	value := configured
	if override != "" {
		value = override
	}

	if value == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(value)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, value)
	}

	logger.SetLevel(level)

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
