package security

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oshokin/workstation-setup/internal/config"
)

// Provider answers the OS-level questions the checks need.
type Provider interface {
	// AppExists reports whether an application bundle exists at path.
	AppExists(path string) (bool, error)
	// ProcessRunning reports whether a process matching name is running.
	ProcessRunning(name string) (bool, error)
	// GatekeeperStatus returns the status text printed by the gatekeeping command.
	GatekeeperStatus(ctx context.Context) (string, error)
}

// Level is the severity of a finding.
type Level int

const (
	// LevelInfo is a healthy result.
	LevelInfo Level = iota
	// LevelWarning is an advisory result that needs attention.
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}

	return "info"
}

// Check names.
const (
	CheckAntivirus  = "antivirus"
	CheckGatekeeper = "gatekeeper"
)

// Finding is the result of one check.
type Finding struct {
	// Check is the check that produced the finding.
	Check string
	// Level is the finding severity.
	Level Level
	// Message is the human-readable result.
	Message string
}

// Checker runs the security checks.
type Checker struct {
	provider Provider
	settings config.Security
	log      *zap.SugaredLogger
}

// NewChecker creates a Checker.
func NewChecker(provider Provider, settings config.Security, log *zap.SugaredLogger) *Checker {
	if settings.GatekeeperEnabledStatus == "" {
		settings.GatekeeperEnabledStatus = config.DefaultGatekeeperEnabledStatus
	}

	return &Checker{
		provider: provider,
		settings: settings,
		log:      log,
	}
}

// Check runs both checks, logs every finding and returns them in order.
func (c *Checker) Check(ctx context.Context) []Finding {
	findings := []Finding{
		c.checkAntivirus(),
		c.checkGatekeeper(ctx),
	}

	for _, f := range findings {
		if f.Level == LevelWarning {
			c.log.Warn(f.Message)
		} else {
			c.log.Info(f.Message)
		}
	}

	return findings
}

func (c *Checker) checkAntivirus() Finding {
	app := c.settings.AntivirusApp
	process := c.settings.AntivirusProcess

	exists, err := c.provider.AppExists(app)
	if err != nil {
		return warning(CheckAntivirus, "Antivirus check failed for %s: %v, verify installation", app, err)
	}

	if !exists {
		return warning(CheckAntivirus, "Antivirus not found at %s, verify installation", app)
	}

	running, err := c.provider.ProcessRunning(process)
	if err != nil {
		return warning(CheckAntivirus, "Antivirus found at %s but its process state is unknown: %v", app, err)
	}

	if !running {
		return warning(CheckAntivirus, "Antivirus found at %s but %s is not running", app, process)
	}

	return info(CheckAntivirus, "Antivirus %s is installed and running", process)
}

func (c *Checker) checkGatekeeper(ctx context.Context) Finding {
	status, err := c.provider.GatekeeperStatus(ctx)
	if err != nil {
		return warning(CheckGatekeeper, "Gatekeeper: could not determine status: %v", err)
	}

	status = strings.TrimSpace(status)
	if status == c.settings.GatekeeperEnabledStatus {
		return info(CheckGatekeeper, "Gatekeeper is active")
	}

	return warning(CheckGatekeeper, "Gatekeeper is not active, status: %q", status)
}

func info(check, format string, args ...any) Finding {
	return Finding{Check: check, Level: LevelInfo, Message: fmt.Sprintf(format, args...)}
}

func warning(check, format string, args ...any) Finding {
	return Finding{Check: check, Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}
