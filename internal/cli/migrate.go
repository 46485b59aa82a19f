package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/facet-cli/internal/cli/render"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate <version>",
		Short: "Migrate the protocol to a new version",
		Long: `Run the migration plan migrations/<version>.yaml against the diamond.

The protocol is paused where the plan says so, the target revision is compiled,
facets are deployed and cut in, the initializer runs and storage is backfilled.
Local sources are restored on every path.`,
		Example: `  # Rehearse on a fork of sepolia
  facet migrate 2.4.0 --network sepolia --dry-run

  # Rehearse offline against the address book
  facet migrate 2.4.0 --network sepolia --simulate --chain-id 11155111

  # List available plans
  facet migrate --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if list {
				versions, err := app.Plans.ListMigrations(cmd.Context())
				if err != nil {
					return err
				}
				return render.RenderMigrationList(cmd.OutOrStdout(), versions, app.Config.JSON)
			}
			if len(args) != 1 {
				return fmt.Errorf("a protocol version is required (see --list)")
			}

			var result *models.MigrationResult
			if app.Config.DryRun {
				result, err = app.DryRunMigration.Run(cmd.Context(), usecase.DryRunParams{
					Version:          args[0],
					SkipDependencies: app.Config.SkipDependencies,
				})
			} else {
				result, err = app.MigrateProtocol.Run(cmd.Context(), usecase.MigrateParams{
					Version:          args[0],
					SkipDependencies: app.Config.SkipDependencies,
				})
			}
			if err != nil {
				return err
			}
			return render.NewMigrationRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.Flags().Bool("dry-run", false, "Run against a local anvil fork of the network")
	cmd.Flags().Bool("simulate", false, "Run against an in-memory diamond seeded from the address book")
	cmd.Flags().Bool("skip-dependencies", false, "Do not refresh dependencies before compiling")
	cmd.Flags().BoolVar(&list, "list", false, "List available migration plans")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "simulate")

	return cmd
}
