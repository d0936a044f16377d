package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/workstation-setup/internal/logger"
	"github.com/oshokin/workstation-setup/internal/service/provisioner"
)

var (
	// planCmd shows what a run would install.
	planCmd = &cobra.Command{
		Use:   "plan <role>",
		Short: "Show the packages a run would install.",
		Long: `Resolve the manifest for a role and print every package in install order,
marking the ones that are not installed yet. Nothing is installed and no run log is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if err := applyLogLevel(); err != nil {
				return err
			}

			_, err := provisioner.ShowPlan(cmd.Context(), options(args[0]))

			return err
		},
	}

	// rolesCmd lists the roles declared in the manifest.
	rolesCmd = &cobra.Command{
		Use:   "roles",
		Short: "List the roles declared in the manifest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			roles, err := provisioner.ListRoles(cmd.Context(), options(""))
			if err != nil {
				return err
			}

			for _, role := range roles {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), role)
			}

			return nil
		},
	}
)

// applyLogLevel sets the global logger level from --log-level.
func applyLogLevel() error {
	if logLevel == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("invalid log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}
