package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/workstation-setup/internal/system"
)

var (
	// errEmptyCommand is returned when no gatekeeping command is configured.
	errEmptyCommand = errors.New("gatekeeper command is empty")
	// errEmptyProcessName is returned when no process name is configured.
	errEmptyProcessName = errors.New("process name is empty")
)

// OSProvider answers security questions from the running system.
type OSProvider struct {
	executor          system.CommandExecutor
	gatekeeperCommand []string
	// processes lists running processes, ps.Processes outside tests.
	processes func() ([]ps.Process, error)
}

// NewOSProvider creates a provider running gatekeeperCommand through executor.
func NewOSProvider(executor system.CommandExecutor, gatekeeperCommand []string) *OSProvider {
	return &OSProvider{
		executor:          executor,
		gatekeeperCommand: gatekeeperCommand,
		processes:         ps.Processes,
	}
}

// AppExists reports whether path exists.
func (p *OSProvider) AppExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// ProcessRunning reports whether any process executable contains name, ignoring case.
func (p *OSProvider) ProcessRunning(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, errEmptyProcessName
	}

	processList, err := p.processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	needle := strings.ToLower(name)
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if strings.Contains(strings.ToLower(process.Executable()), needle) {
			return true, nil
		}
	}

	return false, nil
}

// GatekeeperStatus runs the gatekeeping status command and returns its output.
// spctl exits with status 1 when assessments are disabled, so a command that fails
// after printing a status still reports that status.
func (p *OSProvider) GatekeeperStatus(ctx context.Context) (string, error) {
	if len(p.gatekeeperCommand) == 0 {
		return "", errEmptyCommand
	}

	output, err := p.executor.Execute(ctx, p.gatekeeperCommand[0], p.gatekeeperCommand[1:]...)
	if err != nil {
		var cmdErr *system.CommandError
		if !errors.As(err, &cmdErr) || ctx.Err() != nil {
			return "", err
		}

		status := firstLine(cmdErr.Output)
		if status == "" {
			return "", err
		}

		return status, nil
	}

	return firstLine(string(output)), nil
}

// firstLine returns the first non-empty line of output, trimmed.
func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return ""
}
