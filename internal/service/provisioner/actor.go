package provisioner

import (
	"os"
	"os/user"

	"github.com/oshokin/workstation-setup/internal/domain/provision"
)

// unknownValue stands in for host or user names that cannot be detected.
const unknownValue = "unknown"

// detectActor gathers host and user information for the run header.
// Detection failures are not fatal; the field is reported as unknown.
func detectActor() *provision.Actor {
	actor := &provision.Actor{
		Hostname: unknownValue,
		Username: unknownValue,
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		actor.Hostname = hostname
	}

	if currentUser, err := user.Current(); err == nil && currentUser.Username != "" {
		actor.Username = currentUser.Username
	}

	return actor
}
