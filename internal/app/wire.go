//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/facet-cli/internal/adapters"
	"github.com/trebuchet-org/facet-cli/internal/config"
	"github.com/trebuchet-org/facet-cli/internal/logging"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewMigrateProtocol,
		usecase.NewDryRunMigration,
		usecase.NewUpgradeFacets,
		usecase.NewManageRoles,
		usecase.NewInspectFacet,

		// App
		NewApp,
	)
	return nil, nil
}
