package signal

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var (
	// ErrUnsupportedOS indicates the current OS has no known shell.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrEmptyCommand is returned when no command is configured.
	ErrEmptyCommand = errors.New("alarm command is empty")
)

// Command builds the shell invocation of an alarm command for the current OS:
//   - Linux/macOS: `sh -c <command>`
//   - Windows:     `cmd.exe /C <command>`
func Command(ctx context.Context, command string) (*exec.Cmd, error) {
	return commandFor(ctx, runtime.GOOS, command)
}

// commandFor builds the invocation for osName.
func commandFor(ctx context.Context, osName, command string) (*exec.Cmd, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}

	osName = strings.ToLower(osName)

	switch {
	case strings.Contains(osName, "linux") || strings.Contains(osName, "darwin"):
		return exec.CommandContext(ctx, "sh", "-c", command), nil
	case strings.Contains(osName, "windows"):
		return exec.CommandContext(ctx, "cmd.exe", "/C", command), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, osName)
	}
}

// Start launches the alarm command without waiting for it.
// The process is reaped in the background.
func Start(ctx context.Context, command string) error {
	cmd, err := Command(ctx, command)
	if err != nil {
		return err
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("start alarm command: %w", err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
