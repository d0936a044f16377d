package brew

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/oshokin/workstation-setup/internal/config"
	"github.com/oshokin/workstation-setup/internal/domain/provision"
	"github.com/oshokin/workstation-setup/internal/system"
)

var (
	// ErrNotFound is returned when the brew executable cannot be located.
	ErrNotFound = errors.New("homebrew executable not found")
	// errUnexpectedVersionOutput is returned when "brew --version" cannot be parsed.
	errUnexpectedVersionOutput = errors.New("unexpected version output")
)

// Client runs Homebrew commands.
type Client struct {
	// executor runs the brew processes.
	executor system.CommandExecutor
	// settings holds the binary name, search paths and install script.
	settings config.PackageManager
	// binary is the located executable, the configured name until Locate succeeds.
	binary string
}

// New creates a Homebrew client. Call Locate before issuing commands so the
// absolute executable path is used when brew is not in PATH.
func New(executor system.CommandExecutor, settings config.PackageManager) *Client {
	binary := settings.Binary
	if binary == "" {
		binary = config.DefaultBrewBinary
		settings.Binary = binary
	}

	return &Client{
		executor: executor,
		settings: settings,
		binary:   binary,
	}
}

// Locate looks the binary up in PATH, then in the configured search paths.
func (c *Client) Locate() (string, error) {
	candidates := append([]string{c.settings.Binary}, c.settings.SearchPaths...)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		path, err := c.executor.LookPath(candidate)
		if err == nil {
			c.binary = path
			return path, nil
		}
	}

	return "", ErrNotFound
}

// InstallSelf runs the official install script non-interactively.
func (c *Client) InstallSelf(ctx context.Context) error {
	script := fmt.Sprintf(`NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL %s)"`, c.settings.InstallScriptURL)

	if _, err := c.executor.Execute(ctx, "/bin/bash", "-c", script); err != nil {
		return fmt.Errorf("install homebrew: %w", err)
	}

	return nil
}

// Version returns the installed Homebrew version.
func (c *Client) Version(ctx context.Context) (*version.Version, error) {
	output, err := c.executor.Execute(ctx, c.binary, "--version")
	if err != nil {
		return nil, fmt.Errorf("brew version: %w", err)
	}

	return ParseVersion(output)
}

// ParseVersion extracts the version from "brew --version" output, e.g. "Homebrew 4.3.5".
func ParseVersion(output []byte) (*version.Version, error) {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")

	fields := strings.Fields(firstLine)
	if len(fields) < 2 || fields[0] != "Homebrew" {
		return nil, fmt.Errorf("%w: %q", errUnexpectedVersionOutput, firstLine)
	}

	v, err := version.NewVersion(fields[1])
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", fields[1], err)
	}

	return v, nil
}

// IsInstalled reports whether name is installed in the kind's catalog.
// "brew list" exits non-zero for packages that are not installed.
func (c *Client) IsInstalled(ctx context.Context, name string, kind provision.Kind) (bool, error) {
	_, err := c.executor.Execute(ctx, c.binary, "list", kindFlag(kind), name)
	if err == nil {
		return true, nil
	}

	var cmdErr *system.CommandError
	if errors.As(err, &cmdErr) {
		return false, nil
	}

	return false, fmt.Errorf("query %s %s: %w", kind, name, err)
}

// Install installs name from the kind's catalog.
func (c *Client) Install(ctx context.Context, name string, kind provision.Kind) error {
	if _, err := c.executor.Execute(ctx, c.binary, "install", kindFlag(kind), name); err != nil {
		return fmt.Errorf("install %s %s: %w", kind, name, err)
	}

	return nil
}

// Update refreshes the Homebrew catalog.
func (c *Client) Update(ctx context.Context) error {
	if _, err := c.executor.Execute(ctx, c.binary, "update"); err != nil {
		return fmt.Errorf("brew update: %w", err)
	}

	return nil
}

// ListInstalled returns the names installed in the kind's catalog.
func (c *Client) ListInstalled(ctx context.Context, kind provision.Kind) (map[string]struct{}, error) {
	output, err := c.executor.Execute(ctx, c.binary, "list", kindFlag(kind), "-1")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	installed := make(map[string]struct{})

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			installed[name] = struct{}{}
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	return installed, nil
}

func kindFlag(kind provision.Kind) string {
	if kind == provision.KindCask {
		return "--cask"
	}

	return "--formula"
}
