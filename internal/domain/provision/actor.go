package provision

// Actor identifies the machine and user a run provisions.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the user running the provisioner.
	Username string
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}
