//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
)

// DetectActor gathers host and user information of the current process.
func DetectActor() (*monitor.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &monitor.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
