package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/facet-cli/internal/app"
	"github.com/trebuchet-org/facet-cli/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// skipsApp reports whether a command runs without a project
func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return true
	}
	return false
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "facet",
		Short: "Diamond facet reconciliation and protocol migrations",
		Long: `facet keeps an EIP-2535 diamond's routing in line with the compiled facets
of a Foundry project and runs versioned protocol migrations against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd) {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}
			cmd.SetContext(ctx)

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts; collisions fail instead of asking")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringP("namespace", "s", "", "Foundry profile to read [profile.<ns>.facet] from (defaults to 'default')")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network from foundry.toml [rpc_endpoints]")
	rootCmd.PersistentFlags().StringP("env", "e", "", "Address book environment (defaults to 'test')")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Use this chain id instead of asking the RPC endpoint")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort after this long (defaults to 10m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	migrateCmd := NewMigrateCmd()
	migrateCmd.GroupID = "main"
	rootCmd.AddCommand(migrateCmd)

	upgradeCmd := NewUpgradeCmd()
	upgradeCmd.GroupID = "main"
	rootCmd.AddCommand(upgradeCmd)

	rolesCmd := NewRolesCmd()
	rolesCmd.GroupID = "management"
	rootCmd.AddCommand(rolesCmd)

	inspectCmd := NewInspectCmd()
	inspectCmd.GroupID = "management"
	rootCmd.AddCommand(inspectCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
