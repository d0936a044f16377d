package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/workstation-setup/internal/logger"
	"github.com/oshokin/workstation-setup/internal/service/provisioner"
	"github.com/oshokin/workstation-setup/internal/version"
)

var (
	// configPath stores the path to the settings YAML file.
	configPath string
	// manifestPath overrides the manifest location.
	manifestPath string
	// logDir overrides the run log directory.
	logDir string
	// logLevel overrides the minimum log level.
	logLevel string

	// rootCmd provisions a workstation for one role.
	rootCmd = &cobra.Command{
		Use:   "provision <role>",
		Short: "Install role packages and check endpoint protection.",
		Long: `Provision a macOS workstation for a role.

Installs Homebrew when it is missing, then installs the shared packages and the
packages of the given role from the manifest, skipping anything already installed.
A failed package is logged and the run continues. Finally checks that antivirus
software is installed and running and that Gatekeeper is enabled.

Every line is written to the console and to ~/workstation_setup_YYYYMMDD_HHMMSS.log.
The exit status is 1 only when the package manager, the required tools or the
manifest are unavailable.`,
		Example: "  provision Analyst\n  provision Developer --manifest ./packages.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			_, err := provisioner.Run(ctx, options(args[0]))

			return err
		},
	}
)

// Execute runs the provision CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Fatal run errors are already in the run log and on the console.
		var fatalErr *provisioner.FatalError
		if !errors.As(err, &fatalErr) {
			logger.Errorf(ctx, "%v", err)
		}

		os.Exit(1)
	}
}

// options builds provisioner options from the command-line flags.
func options(role string) *provisioner.Options {
	return &provisioner.Options{
		Role:         role,
		ConfigPath:   configPath,
		ManifestPath: manifestPath,
		LogDir:       logDir,
		LogLevel:     logLevel,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.SilenceErrors = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to settings file (default \"workstation-setup.yaml\" if present)")
	flags.StringVarP(&manifestPath, "manifest", "m", "", "path to package manifest (default \"packages.json\" next to the executable)")
	flags.StringVar(&logDir, "log-dir", "", "directory for the run log (default home directory)")
	flags.StringVar(&logLevel, "log-level", "", "minimum log level: debug, info, warning, error")

	rootCmd.AddCommand(planCmd, rolesCmd, configCmd)
}
