package installer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oshokin/workstation-setup/internal/domain/provision"
)

// PackageManager is the package manager adapter used by the Installer.
type PackageManager interface {
	// IsInstalled reports whether name is installed in the kind's catalog.
	IsInstalled(ctx context.Context, name string, kind provision.Kind) (bool, error)
	// Install installs name from the kind's catalog.
	Install(ctx context.Context, name string, kind provision.Kind) error
	// Update refreshes the package catalog.
	Update(ctx context.Context) error
	// ListInstalled returns the installed names of a kind.
	ListInstalled(ctx context.Context, kind provision.Kind) (map[string]struct{}, error)
}

// Installer installs missing packages one at a time.
type Installer struct {
	pm  PackageManager
	log *zap.SugaredLogger
}

// New creates an Installer.
func New(pm PackageManager, log *zap.SugaredLogger) *Installer {
	return &Installer{
		pm:  pm,
		log: log,
	}
}

// InstallFormulae installs the missing command-line tools among names.
func (i *Installer) InstallFormulae(ctx context.Context, names []string) []provision.Result {
	return i.install(ctx, names, provision.KindFormula)
}

// InstallCasks installs the missing GUI applications among names.
func (i *Installer) InstallCasks(ctx context.Context, names []string) []provision.Result {
	return i.install(ctx, names, provision.KindCask)
}

// install processes names in order. Blank names produce no result.
// An install failure is recorded and never stops the remaining names.
// A cancelled context stops the loop; the remaining names get no result.
func (i *Installer) install(ctx context.Context, names []string, kind provision.Kind) []provision.Result {
	results := make([]provision.Result, 0, len(names))

	for _, name := range names {
		if provision.IsBlank(name) {
			continue
		}

		if err := ctx.Err(); err != nil {
			i.log.Debugf("Stopping %s installs: %v", kind, err)
			break
		}

		results = append(results, i.installOne(ctx, name, kind))
	}

	return results
}

func (i *Installer) installOne(ctx context.Context, name string, kind provision.Kind) provision.Result {
	result := provision.Result{
		Name: name,
		Kind: kind,
	}

	installed, err := i.pm.IsInstalled(ctx, name, kind)
	if err != nil {
		// Unknown state: fall through to a single install attempt.
		i.log.Debugf("Could not query %s %s, attempting install: %v", kind, name, err)
	}

	if installed {
		result.Outcome = provision.OutcomeAlreadyPresent
		i.log.Infof("%s is already installed (%s)", name, kind)

		return result
	}

	i.log.Infof("Installing %s (%s)", name, kind)

	if err = i.pm.Install(ctx, name, kind); err != nil {
		result.Outcome = provision.OutcomeFailed
		result.Err = err
		i.log.Warnf("Failed to install %s (%s): %v", name, kind, err)

		return result
	}

	result.Outcome = provision.OutcomeInstalled
	i.log.Infof("Installed %s (%s)", name, kind)

	return result
}

// Refresh updates the package catalog once before installing.
func (i *Installer) Refresh(ctx context.Context) error {
	i.log.Info("Updating package catalog")

	if err := i.pm.Update(ctx); err != nil {
		return fmt.Errorf("update package catalog: %w", err)
	}

	return nil
}

// EnsureTools installs every required tool that is missing. Unlike manifest packages,
// a required tool that cannot be installed fails the whole run.
func (i *Installer) EnsureTools(ctx context.Context, tools []string) error {
	for _, result := range i.InstallFormulae(ctx, tools) {
		if result.Outcome == provision.OutcomeFailed {
			return fmt.Errorf("required tool %s: %w", result.Name, result.Err)
		}
	}

	return ctx.Err()
}
