package provisioner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/workstation-setup/internal/system"
)

const analystManifest = `{"shared":{"formulae":["jq"],"casks":["malwarebytes"]},"roles":{"Analyst":{"formulae":["tableau-cli"],"casks":[]}}}`

var errExit1 = errors.New("exit status 1")

// brewSimulator behaves like a small Homebrew installation.
type brewSimulator struct {
	// present controls whether brew is found on PATH.
	present bool
	// installed holds "--formula name" and "--cask name" keys.
	installed map[string]bool
	// failing lists package names whose install fails.
	failing map[string]bool
	// installs records installed names in order.
	installs []string
	calls    []string
}

func newBrewSimulator() *brewSimulator {
	return &brewSimulator{
		present:   true,
		installed: map[string]bool{},
		failing:   map[string]bool{},
	}
}

func (s *brewSimulator) LookPath(name string) (string, error) {
	if s.present && name == "brew" {
		return "brew", nil
	}

	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (s *brewSimulator) Execute(_ context.Context, name string, args ...string) ([]byte, error) {
	line := system.CommandLine(name, args...)
	s.calls = append(s.calls, line)

	fail := func() ([]byte, error) {
		return nil, &system.CommandError{Command: line, Err: errExit1}
	}

	if name != "brew" || len(args) == 0 {
		return fail()
	}

	switch {
	case args[0] == "--version":
		return []byte("Homebrew 4.3.5\n"), nil
	case args[0] == "update":
		return nil, nil
	case args[0] == "list" && len(args) == 3 && args[2] == "-1":
		var names []string

		for key := range s.installed {
			if flag, pkg, _ := strings.Cut(key, " "); flag == args[1] {
				names = append(names, pkg)
			}
		}

		sort.Strings(names)

		return []byte(strings.Join(names, "\n")), nil
	case args[0] == "list" && len(args) == 3:
		if s.installed[args[1]+" "+args[2]] {
			return []byte(args[2]), nil
		}

		return fail()
	case args[0] == "install" && len(args) == 3:
		if s.failing[args[2]] {
			return fail()
		}

		s.installed[args[1]+" "+args[2]] = true
		s.installs = append(s.installs, args[2])

		return nil, nil
	}

	return nil, fmt.Errorf("unexpected command %s", line)
}

// fakeProvider returns scripted security answers.
type fakeProvider struct {
	status string
}

func (f *fakeProvider) AppExists(string) (bool, error)      { return true, nil }
func (f *fakeProvider) ProcessRunning(string) (bool, error) { return true, nil }
func (f *fakeProvider) GatekeeperStatus(context.Context) (string, error) {
	return f.status, nil
}

func writeManifest(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "packages.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}
