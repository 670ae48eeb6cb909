package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another monitor process is found.
var ErrAlreadyRunning = errors.New("another instance is already running")

// processLister lists running processes.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance(list processLister, executable string) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	name := executableName(executable)
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !sameExecutable(executableName(process.Executable()), name) {
			continue
		}

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// commLength is the length Linux truncates process names to.
const commLength = 15

// sameExecutable compares a listed process name with ours.
func sameExecutable(listed, name string) bool {
	if listed == name {
		return true
	}

	return len(listed) == commLength && strings.HasPrefix(name, listed)
}

// executableName strips the directory and the Windows extension.
func executableName(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(strings.ToLower(base), ".exe")
}
