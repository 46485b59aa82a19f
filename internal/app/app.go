package app

import (
	"log/slog"

	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Plans    usecase.PlanLoader
	Progress usecase.ProgressSink

	// Use cases
	MigrateProtocol *usecase.MigrateProtocol
	DryRunMigration *usecase.DryRunMigration
	UpgradeFacets   *usecase.UpgradeFacets
	ManageRoles     *usecase.ManageRoles
	InspectFacet    *usecase.InspectFacet
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	plans usecase.PlanLoader,
	progress usecase.ProgressSink,
	migrateProtocol *usecase.MigrateProtocol,
	dryRunMigration *usecase.DryRunMigration,
	upgradeFacets *usecase.UpgradeFacets,
	manageRoles *usecase.ManageRoles,
	inspectFacet *usecase.InspectFacet,
) (*App, error) {
	return &App{
		Config:          cfg,
		Log:             log,
		Plans:           plans,
		Progress:        progress,
		MigrateProtocol: migrateProtocol,
		DryRunMigration: dryRunMigration,
		UpgradeFacets:   upgradeFacets,
		ManageRoles:     manageRoles,
		InspectFacet:    inspectFacet,
	}, nil
}
