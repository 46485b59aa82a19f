package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/facet-cli/internal/cli/render"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <Facet>",
		Short: "Show a compiled facet's selectors and interface id",
		Example: `  facet inspect OfferHandlerFacet
  facet inspect OfferHandlerFacet --network sepolia --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := app.InspectFacet.Run(cmd.Context(), usecase.InspectParams{Name: args[0]})
			if err != nil {
				return err
			}
			return render.NewInspectRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}
}
