package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/service/checker"
	"github.com/oshokin/dispatch-monitor/internal/service/common"
)

// TestChecker_PrintsOnce prints the live alarm list and exits.
func TestChecker_PrintsOnce(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	cfgPath := writeConfig(t, addr)

	stop := startGRPC(t, cfgPath, filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, addr)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.SetPolling(ctx, true)
	require.NoError(t, err)

	var out bytes.Buffer

	err = checker.Run(ctx, &checker.Options{ConfigPath: cfgPath, Once: true, Out: &out})
	require.NoError(t, err)
	require.Equal(t, alarm.TextLinkLoss+"\n", out.String())
}

// TestChecker_PollsAndReturnsOnCancel runs the checker against a live server and cancels it.
func TestChecker_PollsAndReturnsOnCancel(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	cfgPath := writeConfig(t, addr)

	stop := startGRPC(t, cfgPath, filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		options := &checker.Options{
			ConfigPath:    cfgPath,
			ServerAddress: addr,
			PollInterval:  50 * time.Millisecond,
		}

		done <- checker.Run(runCtx, options)
	}()

	// Wait for checker to start polling, then cancel.
	time.Sleep(120 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)
}
