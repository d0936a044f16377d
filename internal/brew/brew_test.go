package brew

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/workstation-setup/internal/config"
	"github.com/oshokin/workstation-setup/internal/domain/provision"
	"github.com/oshokin/workstation-setup/internal/system"
)

var errExit1 = errors.New("exit status 1")

func newClient(t *testing.T) (*Client, *system.MockExecutor) {
	t.Helper()

	executor := system.NewMockExecutor()
	executor.AddPath("brew", "brew")

	return New(executor, config.Default().PackageManager), executor
}

// TestLocate prefers PATH and falls back to the search paths.
func TestLocate(t *testing.T) {
	t.Parallel()

	executor := system.NewMockExecutor()
	client := New(executor, config.Default().PackageManager)

	_, err := client.Locate()
	require.ErrorIs(t, err, ErrNotFound)

	executor.AddPath("/usr/local/bin/brew", "/usr/local/bin/brew")

	path, err := client.Locate()
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/brew", path)

	// Later commands use the located path.
	executor.AddResponse("/usr/local/bin/brew update", nil, nil)
	require.NoError(t, client.Update(context.Background()))
	require.Equal(t, "/usr/local/bin/brew update", executor.Lines()[0])

	executor.AddPath("brew", "/opt/homebrew/bin/brew")

	path, err = client.Locate()
	require.NoError(t, err)
	require.Equal(t, "/opt/homebrew/bin/brew", path)
}

// TestIsInstalled maps "brew list" exit status to installed state.
func TestIsInstalled(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t)
	executor.AddResponse("brew list --formula jq", []byte("/opt/homebrew/Cellar/jq/1.7.1/bin/jq"), nil)
	executor.AddResponse("brew list --cask slack", []byte("Error: Cask 'slack' is not installed."), errExit1)

	ok, err := client.IsInstalled(context.Background(), "jq", provision.KindFormula)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.IsInstalled(context.Background(), "slack", provision.KindCask)
	require.NoError(t, err)
	require.False(t, ok)

	// A failure to start the process is reported, not treated as "not installed".
	executor.DefaultResponse = system.MockResponse{Err: errors.New("fork/exec brew: no such file or directory")}

	_, err = client.IsInstalled(context.Background(), "git", provision.KindFormula)
	require.Error(t, err)
}

// TestInstall issues the kind-specific install command.
func TestInstall(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t)
	executor.AddResponse("brew install --cask broken", []byte("Error: Cask 'broken' is unavailable"), errExit1)

	require.NoError(t, client.Install(context.Background(), "jq", provision.KindFormula))
	require.NoError(t, client.Install(context.Background(), "malwarebytes", provision.KindCask))

	err := client.Install(context.Background(), "broken", provision.KindCask)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unavailable")

	require.Equal(t, []string{
		"brew install --formula jq",
		"brew install --cask malwarebytes",
		"brew install --cask broken",
	}, executor.Lines())
}

// TestListInstalled parses one name per line.
func TestListInstalled(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t)
	executor.AddResponse("brew list --formula -1", []byte("git\njq\n\n  wget  \n"), nil)
	executor.AddResponse("brew list --cask -1", nil, errExit1)

	installed, err := client.ListInstalled(context.Background(), provision.KindFormula)
	require.NoError(t, err)
	require.Equal(t, map[string]struct{}{"git": {}, "jq": {}, "wget": {}}, installed)

	_, err = client.ListInstalled(context.Background(), provision.KindCask)
	require.Error(t, err)
}

// TestUpdateAndInstallSelf checks the update and bootstrap commands.
func TestUpdateAndInstallSelf(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t)

	require.NoError(t, client.Update(context.Background()))
	require.NoError(t, client.InstallSelf(context.Background()))

	lines := executor.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "brew update", lines[0])
	require.Contains(t, lines[1], "/bin/bash -c")
	require.Contains(t, lines[1], "NONINTERACTIVE=1")
	require.Contains(t, lines[1], config.DefaultInstallScriptURL)
}

// TestParseVersion accepts Homebrew output and rejects anything else.
func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion([]byte("Homebrew 4.3.5\nHomebrew/homebrew-core (git revision abc; last commit 2024-06-01)\n"))
	require.NoError(t, err)
	require.Equal(t, "4.3.5", v.String())

	v, err = ParseVersion([]byte("Homebrew 4.2.0-45-g1a2b3c4\n"))
	require.NoError(t, err)
	require.Equal(t, "4.2.0", v.Core().String())

	_, err = ParseVersion([]byte("zsh: command not found: brew"))
	require.Error(t, err)

	_, err = ParseVersion([]byte("Homebrew >=nonsense"))
	require.Error(t, err)
}

// TestVersion runs "brew --version".
func TestVersion(t *testing.T) {
	t.Parallel()

	client, executor := newClient(t)
	executor.AddResponse("brew --version", []byte("Homebrew 4.4.0\n"), nil)

	v, err := client.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "4.4.0", v.String())
}
