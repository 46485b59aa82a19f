package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/facet-cli/internal/cli/render"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// NewRolesCmd creates the roles command group
func NewRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage access controller roles",
		Long: fmt.Sprintf(`Grant, revoke and check roles on the protocol access controller.

Known roles: %v. Any other value must be a 32-byte role id.`, domain.KnownRoleNames()),
	}

	cmd.AddCommand(
		newRoleActionCmd(usecase.RoleGrant, "Grant roles to an account (requires ADMIN)", 2),
		newRoleActionCmd(usecase.RoleRevoke, "Revoke roles from an account (requires ADMIN)", 2),
		newRoleActionCmd(usecase.RoleCheck, "Check which roles an account holds", 1),
	)
	return cmd
}

func newRoleActionCmd(action usecase.RoleAction, short string, minArgs int) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <account> [role...]", action),
		Short: short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params, err := parseRoleArgs(action, args)
			if err != nil {
				return err
			}
			result, err := app.ManageRoles.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render.NewRolesRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}
}

// parseRoleArgs turns "<account> [role...]" into params. check without
// roles asks about every known role.
func parseRoleArgs(action usecase.RoleAction, args []string) (usecase.ManageRolesParams, error) {
	if !common.IsHexAddress(args[0]) {
		return usecase.ManageRolesParams{}, fmt.Errorf("invalid account address: %s", args[0])
	}
	names := args[1:]
	if len(names) == 0 && action == usecase.RoleCheck {
		names = domain.KnownRoleNames()
	}

	roles := make([]domain.Role, 0, len(names))
	for _, name := range names {
		role, err := domain.ParseRole(name)
		if err != nil {
			return usecase.ManageRolesParams{}, err
		}
		roles = append(roles, role)
	}
	return usecase.ManageRolesParams{
		Action:  action,
		Account: common.HexToAddress(args[0]),
		Roles:   roles,
	}, nil
}
