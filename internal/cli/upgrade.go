package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/facet-cli/internal/cli/render"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	var (
		configPath string
		facets     []string
		pick       bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Deploy and cut in facets from the current build",
		Long: `Deploy the facets listed in an upgrade config and cut them into the diamond
without advancing the protocol version.`,
		Example: `  # Upgrade every facet in the config
  facet upgrade --network sepolia --config upgrades/offers.yaml

  # Only two of them
  facet upgrade -n sepolia -c upgrades/offers.yaml --facets OfferHandlerFacet,ExchangeHandlerFacet

  # Choose interactively
  facet upgrade -n sepolia -c upgrades/offers.yaml --pick`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.UpgradeFacets.Run(cmd.Context(), usecase.UpgradeParams{
				ConfigPath: configPath,
				Only:       facets,
				Pick:       pick,
			})
			if err != nil {
				return err
			}
			return render.NewMigrationRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Upgrade config (YAML)")
	cmd.Flags().StringSliceVar(&facets, "facets", nil, "Only upgrade these facets of the config")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the facets to upgrade interactively")
	cmd.Flags().Bool("simulate", false, "Run against an in-memory diamond seeded from the address book")
	_ = cmd.MarkFlagRequired("config")
	cmd.MarkFlagsMutuallyExclusive("facets", "pick")

	return cmd
}
