package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// Bootstrapper locates and installs the package manager itself.
type Bootstrapper interface {
	// Locate returns the package manager executable path.
	Locate() (string, error)
	// InstallSelf installs the package manager.
	InstallSelf(ctx context.Context) error
	// Version returns the installed package manager version.
	Version(ctx context.Context) (*version.Version, error)
}

// BootstrapOptions controls Bootstrap.
type BootstrapOptions struct {
	// MinVersion logs a warning when the package manager is older. Empty disables the check.
	MinVersion string
}

// errStillMissing is returned when the package manager is absent after installing it.
var errStillMissing = errors.New("package manager not found after installation")

// Bootstrap makes sure the package manager is present, installing it when missing.
// Any failure here is fatal to the run.
func Bootstrap(ctx context.Context, b Bootstrapper, opts BootstrapOptions, log *zap.SugaredLogger) error {
	path, err := b.Locate()
	if err != nil {
		log.Info("Package manager not found, installing it")

		if err = b.InstallSelf(ctx); err != nil {
			return err
		}

		if path, err = b.Locate(); err != nil {
			return fmt.Errorf("%w: %w", errStillMissing, err)
		}

		log.Infof("Package manager installed at %s", path)
	} else {
		log.Infof("Package manager found at %s", path)
	}

	checkVersion(ctx, b, opts.MinVersion, log)

	return nil
}

// checkVersion logs the package manager version and warns when it is below minimum.
// Version problems never fail the run.
func checkVersion(ctx context.Context, b Bootstrapper, minimum string, log *zap.SugaredLogger) {
	current, err := b.Version(ctx)
	if err != nil {
		log.Warnf("Could not determine package manager version: %v", err)
		return
	}

	log.Infof("Package manager version %s", current)

	if minimum == "" {
		return
	}

	required, err := version.NewVersion(minimum)
	if err != nil {
		log.Warnf("Ignoring invalid minimum package manager version %q: %v", minimum, err)
		return
	}

	if current.Core().LessThan(required) {
		log.Warnf("Package manager version %s is older than the recommended %s", current, required)
	}
}
