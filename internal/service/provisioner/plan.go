package provisioner

import (
	"context"
	"fmt"

	"github.com/oshokin/workstation-setup/internal/brew"
	"github.com/oshokin/workstation-setup/internal/config"
	"github.com/oshokin/workstation-setup/internal/domain/provision"
	"github.com/oshokin/workstation-setup/internal/logger"
	"github.com/oshokin/workstation-setup/internal/manifest"
	"github.com/oshokin/workstation-setup/internal/system"
)

// PlanEntry is one package of a dry-run plan.
type PlanEntry struct {
	manifest.Entry
	// Missing is true when the package is not installed or its state is unknown.
	Missing bool
}

// ShowPlan resolves the plan for opts.Role and logs which packages a run would install.
// Nothing is installed and no run log is created.
func ShowPlan(ctx context.Context, opts *Options) ([]PlanEntry, error) {
	ctx = logger.WithName(ctx, "plan")
	log := logger.FromContext(ctx)

	if opts.Role == "" {
		return nil, errRoleRequired
	}

	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	m, err := loadManifest(cfg)
	if err != nil {
		return nil, err
	}

	plan := manifest.Resolve(m, opts.Role, log)

	executor := opts.Executor
	if executor == nil {
		executor = system.NewExecutor(system.WithTimeout(cfg.CommandTimeout))
	}

	installed := installedPackages(ctx, brew.New(executor, cfg.PackageManager))

	order := plan.Order()
	entries := make([]PlanEntry, 0, len(order))

	for _, entry := range order {
		missing := true
		if names, known := installed[entry.Kind]; known {
			_, present := names[entry.Name]
			missing = !present
		}

		entries = append(entries, PlanEntry{Entry: entry, Missing: missing})
	}

	logPlan(ctx, plan, entries)

	return entries, nil
}

// ListRoles returns the role names declared in the manifest.
func ListRoles(_ context.Context, opts *Options) ([]string, error) {
	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	m, err := loadManifest(cfg)
	if err != nil {
		return nil, err
	}

	return m.RoleNames(), nil
}

// installedPackages lists installed packages per kind. Kinds that cannot be listed are absent.
func installedPackages(ctx context.Context, client *brew.Client) map[provision.Kind]map[string]struct{} {
	installed := make(map[provision.Kind]map[string]struct{}, 2)

	if _, err := client.Locate(); err != nil {
		logger.Warnf(ctx, "Package manager not found, every package is reported as missing")
		return installed
	}

	for _, kind := range []provision.Kind{provision.KindFormula, provision.KindCask} {
		names, err := client.ListInstalled(ctx, kind)
		if err != nil {
			logger.Warnf(ctx, "Could not list installed %s packages: %v", kind, err)
			continue
		}

		installed[kind] = names
	}

	return installed
}

func logPlan(ctx context.Context, plan manifest.Plan, entries []PlanEntry) {
	missing := 0

	for _, e := range entries {
		state := "installed"
		if e.Missing {
			state = "missing"
			missing++
		}

		logger.Infof(ctx, "%-9s %-7s %s", state, e.Kind, e.Name)
	}

	logger.Infof(ctx, "Role %q: %d package(s), %d to install", plan.Role, len(entries), missing)
}

func loadManifest(cfg *config.Config) (*manifest.Manifest, error) {
	path, err := manifest.ResolvePath(cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	return manifest.Load(path)
}
