package server

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/engine"
	"github.com/oshokin/dispatch-monitor/internal/repository/snapshot"
	"github.com/oshokin/dispatch-monitor/internal/service/common"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int { return p.pid }
func (p fakeProcess) PPid() int { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// writeConfig saves a one-group configuration into a temp dir.
func writeConfig(t *testing.T, groupName string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, &config.Config{
		ServerAddress: "127.0.0.1:7010",
		Groups:        []config.Group{{Name: groupName, Points: []string{"Пост 1"}}},
	}))

	return path
}

// TestEnsureSingleInstance detects a second copy of the executable.
func TestEnsureSingleInstance(t *testing.T) {
	t.Parallel()

	list := func(processes ...ps.Process) processLister {
		return func() ([]ps.Process, error) { return processes, nil }
	}

	self := fakeProcess{pid: os.Getpid(), executable: "dispatch-monitor"}

	require.NoError(t, ensureSingleInstance(list(self), "/opt/bin/dispatch-monitor"))
	require.NoError(t, ensureSingleInstance(list(fakeProcess{pid: 42, executable: "bash"}), "/opt/bin/dispatch-monitor"))

	err := ensureSingleInstance(list(fakeProcess{pid: 42, executable: "dispatch-monito"}), "/opt/bin/dispatch-monitor")
	require.ErrorIs(t, err, ErrAlreadyRunning)

	err = ensureSingleInstance(list(fakeProcess{pid: 43, executable: "Dispatch-Monitor.exe"}), `dispatch-monitor`)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

// TestResolveListenAddress covers override, port extraction and errors.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("monitor.local:7010", "")
	require.NoError(t, err)
	require.Equal(t, ":7010", address)

	address, err = resolveListenAddress("monitor.local:7010", "127.0.0.1:9000")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestApplyLogLevel rejects unknown levels.
func TestApplyLogLevel(t *testing.T) {
	t.Parallel()

	require.NoError(t, applyLogLevel("", ""))
	require.ErrorIs(t, applyLogLevel("info", "loud"), errInvalidLogLevel)
}

// TestService_ReloadConfig rebuilds the tree and rejects broken files.
func TestService_ReloadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "Запад")

	e := engine.New(alarm.NewMonitor(tree.New(nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = e.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	svc := newService(e, path)

	_, err := svc.ReloadConfig(context.Background())
	require.NoError(t, err)

	group, err := e.Group(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "Запад", group.Name)

	svc.configPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err = svc.ReloadConfig(context.Background())
	require.ErrorIs(t, err, monitor.ErrInvalidConfig)

	group, err = e.Group(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "Запад", group.Name)
}

// TestServe_Roundtrip serves the monitor over bufconn and persists a raised alarm.
func TestServe_Roundtrip(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "Центр")
	snapshotFile := filepath.Join(t.TempDir(), config.DefaultSnapshotFilename)
	repo := snapshot.NewFileRepository(snapshotFile)

	e := engine.New(alarm.NewMonitor(tree.New(nil)), engine.WithRepository(repo))
	listener := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)

	go func() {
		served <- serve(ctx, listener, e, newService(e, path), snapshotFile)
	}()

	client, err := common.Dial(context.Background(), "passthrough:///bufnet",
		common.WithCallTimeout(time.Second),
		common.WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		})),
	)
	require.NoError(t, err)

	view, err := client.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, view.Normal)

	view, err = client.SetPolling(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, []string{alarm.TextLinkLoss}, view.Lines)

	_, err = client.GetGroup(context.Background(), 40)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	saved, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, view.ActiveSince.UnixNano(), saved.ActiveSince.UnixNano())
	require.Len(t, saved.Entries, 1)

	require.NoError(t, client.Close())
	cancel()
	require.NoError(t, <-served)
}

// brokenListener fails every Accept.
type brokenListener struct {
	net.Listener
}

func (brokenListener) Accept() (net.Conn, error) { return nil, errAcceptFailed }

// errAcceptFailed is returned by brokenListener.
var errAcceptFailed = errors.New("accept failed")

// TestServe_ListenerFailure returns the Serve error and stops the engine.
func TestServe_ListenerFailure(t *testing.T) {
	t.Parallel()

	e := engine.New(alarm.NewMonitor(tree.New(nil)))
	listener := brokenListener{Listener: bufconn.Listen(1 << 10)}

	t.Cleanup(func() { _ = listener.Close() })

	svc := newService(e, writeConfig(t, "Центр"))
	served := make(chan error, 1)

	go func() {
		served <- serve(context.Background(), listener, e, svc, "")
	}()

	select {
	case err := <-served:
		require.ErrorIs(t, err, errAcceptFailed)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "serve did not return after the listener failed")
	}

	_, err := e.Alarms(context.Background())
	require.ErrorIs(t, err, engine.ErrEngineStopped)
}
