package provisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/workstation-setup/internal/brew"
	"github.com/oshokin/workstation-setup/internal/config"
	"github.com/oshokin/workstation-setup/internal/domain/provision"
	"github.com/oshokin/workstation-setup/internal/logger"
	"github.com/oshokin/workstation-setup/internal/manifest"
	"github.com/oshokin/workstation-setup/internal/service/installer"
	"github.com/oshokin/workstation-setup/internal/service/security"
	"github.com/oshokin/workstation-setup/internal/system"
	"github.com/oshokin/workstation-setup/internal/version"
)

// Options controls a provisioning run.
type Options struct {
	// Role is the role profile to provision.
	Role string
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ManifestPath overrides the manifest location from the settings.
	ManifestPath string
	// LogDir overrides the run log directory from the settings.
	LogDir string
	// LogLevel overrides the log level from the settings.
	LogLevel string
	// Console receives the console copy of the run log, os.Stdout when nil.
	Console io.Writer
	// Executor runs external commands. A real executor is used when nil.
	Executor system.CommandExecutor
	// SecurityProvider answers the security checks. The OS provider is used when nil.
	SecurityProvider security.Provider
	// Now returns the run start time, time.Now when nil.
	Now func() time.Time
}

// Report summarizes a finished or aborted run.
type Report struct {
	// RunID identifies the run in the log.
	RunID string
	// LogPath is the run log file.
	LogPath string
	// Plan is the resolved plan, empty if the run stopped before resolving.
	Plan manifest.Plan
	// Results holds one entry per dispatched package in install order.
	Results []provision.Result
	// Findings holds the security check results.
	Findings []security.Finding
	// SoftFailures lists the steps that completed with problems.
	SoftFailures []string
}

// commandEnvironment is added to every external command of a run.
// The catalog is updated once by the run itself, and no command may prompt.
var commandEnvironment = []string{
	"HOMEBREW_NO_AUTO_UPDATE=1",
	"HOMEBREW_NO_ENV_HINTS=1",
	"NONINTERACTIVE=1",
}

var (
	// errRoleRequired is returned when no role is provided.
	errRoleRequired = errors.New("role must be provided")
	// errInvalidLogLevel is returned for an unknown log level name.
	errInvalidLogLevel = errors.New("invalid log level")
)

// run holds the collaborators and the accumulated state of one execution.
type run struct {
	cfg          *config.Config
	log          *zap.SugaredLogger
	role         string
	manifestPath string
	brew         *brew.Client
	installer    *installer.Installer
	checker      *security.Checker
	report       *Report
}

// Run provisions the workstation for opts.Role.
// It returns an error only for fatal failures; failed packages and security warnings
// are reported through the Report and the log.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	if opts.Role == "" {
		return nil, errRoleRequired
	}

	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.LogLevel)
	}

	// Warnings always reach the run log.
	if level > zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	logDir, err := logDirectory(cfg)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	started := now()

	runLog, err := logger.NewRunLog(logger.RunLogOptions{
		Directory: logDir,
		Prefix:    cfg.LogPrefix,
		Started:   started,
		Level:     level,
		Console:   opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	defer func() {
		_ = runLog.Close()
	}()

	r, err := newRun(cfg, opts, runLog)
	if err != nil {
		runLog.Logger.Errorf("Setup failed: %v", err)
		return nil, &FatalError{Step: "setup", Err: err}
	}

	return r.execute(ctx, started)
}

func newRun(cfg *config.Config, opts *Options, runLog *logger.RunLog) (*run, error) {
	log := runLog.Logger

	manifestPath, err := manifest.ResolvePath(cfg.Manifest)
	if err != nil {
		return nil, err
	}

	executor := opts.Executor
	if executor == nil {
		executor = system.NewExecutor(
			system.WithTimeout(cfg.CommandTimeout),
			system.WithLogger(log),
			system.WithEnv(commandEnvironment...),
		)
	}

	provider := opts.SecurityProvider
	if provider == nil {
		provider = security.NewOSProvider(executor, cfg.Security.GatekeeperCommand)
	}

	brewClient := brew.New(executor, cfg.PackageManager)

	return &run{
		cfg:          cfg,
		log:          log,
		role:         opts.Role,
		manifestPath: manifestPath,
		brew:         brewClient,
		installer:    installer.New(brewClient, log),
		checker:      security.NewChecker(provider, cfg.Security, log),
		report: &Report{
			RunID:   uuid.NewString(),
			LogPath: runLog.Path,
		},
	}, nil
}

// execute logs the header, runs the pipeline and logs the summary.
func (r *run) execute(ctx context.Context, started time.Time) (*Report, error) {
	r.log.Infof("Log file: %s", r.report.LogPath)
	r.log.Infof("Workstation setup %s started for role %q on %s (run %s)",
		version.Short(), r.role, detectActor(), r.report.RunID)

	softFailures, err := runPipeline(ctx, r.steps(), r.log)
	r.report.SoftFailures = softFailures

	if err != nil {
		r.log.Errorf("Workstation setup aborted, see %s", r.report.LogPath)
		return r.report, err
	}

	r.summarize(time.Since(started))

	return r.report, nil
}

func (r *run) steps() []Step {
	return []Step{
		{Name: "package manager bootstrap", Run: r.bootstrap},
		{Name: "catalog update", Run: r.refresh},
		{Name: "required tools", Run: r.requiredTools},
		{Name: "manifest", Run: r.resolve},
		{Name: "shared formulae", Run: r.installGroup("shared formulae", provision.KindFormula, func(p manifest.Plan) []string { return p.SharedFormulae })},
		{Name: "shared casks", Run: r.installGroup("shared casks", provision.KindCask, func(p manifest.Plan) []string { return p.SharedCasks })},
		{Name: "role formulae", Run: r.installGroup("role formulae", provision.KindFormula, func(p manifest.Plan) []string { return p.RoleFormulae })},
		{Name: "role casks", Run: r.installGroup("role casks", provision.KindCask, func(p manifest.Plan) []string { return p.RoleCasks })},
		{Name: "security checks", Run: r.checkSecurity},
	}
}

func (r *run) bootstrap(ctx context.Context) StepResult {
	opts := installer.BootstrapOptions{
		MinVersion: r.cfg.PackageManager.MinVersion,
	}

	if err := installer.Bootstrap(ctx, r.brew, opts, r.log); err != nil {
		return fatal(err)
	}

	return ok()
}

func (r *run) refresh(ctx context.Context) StepResult {
	if !r.cfg.PackageManager.UpdateBeforeInstall {
		r.log.Debug("Catalog update disabled")
		return ok()
	}

	if err := r.installer.Refresh(ctx); err != nil {
		return soft(err)
	}

	return ok()
}

func (r *run) requiredTools(ctx context.Context) StepResult {
	if err := r.installer.EnsureTools(ctx, r.cfg.PackageManager.RequiredTools); err != nil {
		return fatal(err)
	}

	return ok()
}

func (r *run) resolve(context.Context) StepResult {
	r.log.Infof("Reading manifest %s", r.manifestPath)

	m, err := manifest.Load(r.manifestPath)
	if err != nil {
		return fatal(err)
	}

	r.report.Plan = manifest.Resolve(m, r.role, r.log)

	return ok()
}

// installGroup returns a step installing one list of the plan.
func (r *run) installGroup(label string, kind provision.Kind, names func(manifest.Plan) []string) func(context.Context) StepResult {
	return func(ctx context.Context) StepResult {
		list := names(r.report.Plan)

		count := 0

		for _, name := range list {
			if !provision.IsBlank(name) {
				count++
			}
		}

		if count == 0 {
			r.log.Infof("No %s to install", label)
			return ok()
		}

		r.log.Infof("Processing %s (%d)", label, count)

		var results []provision.Result
		if kind == provision.KindCask {
			results = r.installer.InstallCasks(ctx, list)
		} else {
			results = r.installer.InstallFormulae(ctx, list)
		}

		r.report.Results = append(r.report.Results, results...)

		summary := provision.Summarize(results)
		if summary.Failed > 0 {
			return soft(fmt.Errorf("%d of %d failed: %s",
				summary.Failed, summary.Total(), strings.Join(summary.FailedNames, ", ")))
		}

		return ok()
	}
}

func (r *run) checkSecurity(ctx context.Context) StepResult {
	r.log.Info("Checking security status")

	r.report.Findings = r.checker.Check(ctx)

	warnings := 0

	for _, f := range r.report.Findings {
		if f.Level == security.LevelWarning {
			warnings++
		}
	}

	if warnings > 0 {
		return soft(fmt.Errorf("%d security warning(s)", warnings))
	}

	return ok()
}

// summarize logs the end-of-run summary.
func (r *run) summarize(elapsed time.Duration) {
	summary := provision.Summarize(r.report.Results)

	r.log.Infof("Packages: %d installed, %d already present, %d failed",
		summary.Installed, summary.AlreadyPresent, summary.Failed)

	if summary.Failed > 0 {
		r.log.Warnf("Failed packages: %s", strings.Join(summary.FailedNames, ", "))
	}

	r.log.Infof("Workstation setup completed in %s, log saved to %s",
		elapsed.Round(time.Second), r.report.LogPath)
}

// loadSettings loads the settings file and applies command-line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.ManifestPath != "" {
		cfg.Manifest = opts.ManifestPath
	}

	if opts.LogDir != "" {
		cfg.LogDir = opts.LogDir
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	return cfg, nil
}

// logDirectory returns the configured log directory or the user's home directory.
func logDirectory(cfg *config.Config) (string, error) {
	if cfg.LogDir != "" {
		return cfg.LogDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}

	return home, nil
}
