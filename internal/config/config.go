package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the provisioner settings.
// Values are layered: built-in defaults, then the YAML settings file, then PROVISION_* variables.
type Config struct {
	// Manifest is the package manifest path. Relative paths are resolved next to the executable.
	Manifest string `koanf:"manifest" yaml:"manifest"`
	// LogDir is the directory receiving run logs. Empty means the user's home directory.
	LogDir string `koanf:"log_dir" yaml:"log_dir,omitempty"`
	// LogPrefix is the run log file name prefix.
	LogPrefix string `koanf:"log_prefix" yaml:"log_prefix"`
	// LogLevel is the minimum level written to the run log.
	LogLevel string `koanf:"log_level" yaml:"log_level"`
	// CommandTimeout bounds every external command. Zero disables the limit.
	CommandTimeout time.Duration `koanf:"command_timeout" yaml:"command_timeout,omitempty"`
	// PackageManager configures Homebrew discovery and bootstrap.
	PackageManager PackageManager `koanf:"package_manager" yaml:"package_manager"`
	// Security configures the endpoint-protection checks.
	Security Security `koanf:"security" yaml:"security"`
}

// PackageManager holds Homebrew settings.
type PackageManager struct {
	// Binary is the executable name looked up in PATH.
	Binary string `koanf:"binary" yaml:"binary"`
	// SearchPaths are absolute locations checked when Binary is not in PATH.
	SearchPaths []string `koanf:"search_paths" yaml:"search_paths"`
	// InstallScriptURL is the official non-interactive install script.
	InstallScriptURL string `koanf:"install_script_url" yaml:"install_script_url"`
	// MinVersion triggers a warning when the detected version is older. Empty disables the check.
	MinVersion string `koanf:"min_version" yaml:"min_version,omitempty"`
	// RequiredTools are formulae installed before the manifest is processed.
	RequiredTools []string `koanf:"required_tools" yaml:"required_tools"`
	// UpdateBeforeInstall runs a catalog update once before installing packages.
	UpdateBeforeInstall bool `koanf:"update_before_install" yaml:"update_before_install"`
}

// Security holds endpoint-protection check settings.
type Security struct {
	// AntivirusApp is the application bundle location.
	AntivirusApp string `koanf:"antivirus_app" yaml:"antivirus_app"`
	// AntivirusProcess is matched against running process names.
	AntivirusProcess string `koanf:"antivirus_process" yaml:"antivirus_process"`
	// GatekeeperCommand is the status command and its arguments.
	GatekeeperCommand []string `koanf:"gatekeeper_command" yaml:"gatekeeper_command"`
	// GatekeeperEnabledStatus is the exact status text reported when gatekeeping is on.
	GatekeeperEnabledStatus string `koanf:"gatekeeper_enabled_status" yaml:"gatekeeper_enabled_status"`
}

const (
	// DefaultConfigFilename is the default filename for provisioner settings.
	DefaultConfigFilename = "workstation-setup.yaml"

	// DefaultManifestFilename is the well-known manifest name next to the executable.
	DefaultManifestFilename = "packages.json"

	// DefaultLogPrefix is the default run log file name prefix.
	DefaultLogPrefix = "workstation_setup"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultBrewBinary is the package manager executable name.
	DefaultBrewBinary = "brew"

	// DefaultInstallScriptURL is the Homebrew install script.
	DefaultInstallScriptURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

	// DefaultJSONTool is the JSON query tool required by manifest tooling.
	DefaultJSONTool = "jq"

	// DefaultAntivirusApp is the conventional antivirus bundle location.
	DefaultAntivirusApp = "/Applications/Malwarebytes.app"

	// DefaultAntivirusProcess is the antivirus process name.
	DefaultAntivirusProcess = "Malwarebytes"

	// DefaultGatekeeperEnabledStatus is printed by spctl when assessments are on.
	DefaultGatekeeperEnabledStatus = "assessments enabled"

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600

	// envPrefix is the prefix of environment overrides, "__" separates nested keys.
	envPrefix = "PROVISION_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned when the command timeout is below zero.
	errNegativeTimeout = errors.New("command timeout must not be negative")
	// errGatekeeperCommandRequired is returned when the status command is empty.
	errGatekeeperCommandRequired = errors.New("gatekeeper command must be provided")
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Manifest:  DefaultManifestFilename,
		LogPrefix: DefaultLogPrefix,
		LogLevel:  DefaultLogLevel,
		PackageManager: PackageManager{
			Binary:              DefaultBrewBinary,
			SearchPaths:         []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"},
			InstallScriptURL:    DefaultInstallScriptURL,
			RequiredTools:       []string{DefaultJSONTool},
			UpdateBeforeInstall: true,
		},
		Security: Security{
			AntivirusApp:            DefaultAntivirusApp,
			AntivirusProcess:        DefaultAntivirusProcess,
			GatekeeperCommand:       []string{"spctl", "--status"},
			GatekeeperEnabledStatus: DefaultGatekeeperEnabledStatus,
		},
	}
}

// Load reads settings from the provided path on top of the defaults and applies
// PROVISION_* environment overrides. A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	k := koanf.New(".")

	defaults := Default()
	setDefaults(k, defaults)

	path = filepath.Clean(path)

	_, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	case explicit || !errors.Is(statErr, os.ErrNotExist):
		return nil, fmt.Errorf("read settings: %w", statErr)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills empty fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.CommandTimeout < 0 {
		return errNegativeTimeout
	}

	if cfg.Manifest == "" {
		cfg.Manifest = DefaultManifestFilename
	}

	if cfg.LogPrefix == "" {
		cfg.LogPrefix = DefaultLogPrefix
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.PackageManager.Binary == "" {
		cfg.PackageManager.Binary = DefaultBrewBinary
	}

	if cfg.PackageManager.InstallScriptURL == "" {
		cfg.PackageManager.InstallScriptURL = DefaultInstallScriptURL
	}

	if cfg.Security.GatekeeperEnabledStatus == "" {
		cfg.Security.GatekeeperEnabledStatus = DefaultGatekeeperEnabledStatus
	}

	if len(cfg.Security.GatekeeperCommand) == 0 || strings.TrimSpace(cfg.Security.GatekeeperCommand[0]) == "" {
		return errGatekeeperCommandRequired
	}

	return nil
}

// setDefaults seeds koanf with every default value so partial files only override what they set.
func setDefaults(k *koanf.Koanf, cfg *Config) {
	values := map[string]any{
		"manifest":                              cfg.Manifest,
		"log_dir":                               cfg.LogDir,
		"log_prefix":                            cfg.LogPrefix,
		"log_level":                             cfg.LogLevel,
		"command_timeout":                       cfg.CommandTimeout,
		"package_manager.binary":                cfg.PackageManager.Binary,
		"package_manager.search_paths":          cfg.PackageManager.SearchPaths,
		"package_manager.install_script_url":    cfg.PackageManager.InstallScriptURL,
		"package_manager.min_version":           cfg.PackageManager.MinVersion,
		"package_manager.required_tools":        cfg.PackageManager.RequiredTools,
		"package_manager.update_before_install": cfg.PackageManager.UpdateBeforeInstall,
		"security.antivirus_app":                cfg.Security.AntivirusApp,
		"security.antivirus_process":            cfg.Security.AntivirusProcess,
		"security.gatekeeper_command":           cfg.Security.GatekeeperCommand,
		"security.gatekeeper_enabled_status":    cfg.Security.GatekeeperEnabledStatus,
	}

	for key, value := range values {
		//nolint:errcheck // Set only fails for merge conflicts, which cannot happen on flat keys.
		_ = k.Set(key, value)
	}
}

// envKey maps PROVISION_PACKAGE_MANAGER__MIN_VERSION to package_manager.min_version.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}
