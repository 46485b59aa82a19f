package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/facet-cli/internal/adapters/abi"
	"github.com/trebuchet-org/facet-cli/internal/adapters/anvil"
	"github.com/trebuchet-org/facet-cli/internal/adapters/chain"
	"github.com/trebuchet-org/facet-cli/internal/adapters/interactive"
	"github.com/trebuchet-org/facet-cli/internal/adapters/migrations"
	"github.com/trebuchet-org/facet-cli/internal/adapters/progress"
	"github.com/trebuchet-org/facet-cli/internal/adapters/repository/snapshots"
	"github.com/trebuchet-org/facet-cli/internal/adapters/simulated"
	"github.com/trebuchet-org/facet-cli/internal/adapters/source"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// ProvideSessionDialer picks the in-memory diamond for --simulate and the
// live chain otherwise.
func ProvideSessionDialer(cfg *config.RuntimeConfig, live *chain.Dialer, seeded *simulated.SeededDialer, log *slog.Logger) usecase.SessionDialer {
	if cfg.Simulate {
		log.Debug("using simulated diamond", "network", networkName(cfg))
		return seeded
	}
	return live
}

// ProvideProgressSink returns a spinner for interactive terminals and a
// silent sink for JSON or non-interactive output.
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.JSON || cfg.NonInteractive {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerSink()
}

// ProvideMigrationRegistry provides the known protocol initializer versions
func ProvideMigrationRegistry() *protocolinit.Registry {
	return protocolinit.DefaultRegistry()
}

func networkName(cfg *config.RuntimeConfig) string {
	if cfg.Network == nil {
		return ""
	}
	return cfg.Network.Name
}

// RepositorySet provides file-backed address books and migration plans
var RepositorySet = wire.NewSet(
	snapshots.NewFileRepositoryFromConfig,
	wire.Bind(new(usecase.SnapshotRepository), new(*snapshots.FileRepository)),

	migrations.NewLoader,
	wire.Bind(new(usecase.PlanLoader), new(*migrations.Loader)),
)

// SourceSet provides git-backed source checkout and compiled artifacts
var SourceSet = wire.NewSet(
	source.NewMaterializer,
	wire.Bind(new(usecase.SourceMaterializer), new(*source.Materializer)),
	wire.Bind(new(usecase.ArtifactReader), new(*source.Materializer)),
)

// ChainSet provides diamond sessions and local forks
var ChainSet = wire.NewSet(
	chain.NewDialer,
	simulated.NewSeededDialer,
	ProvideSessionDialer,

	anvil.NewManager,
	wire.Bind(new(usecase.ForkManager), new(*anvil.Manager)),

	abi.NewInitEncoder,
	wire.Bind(new(usecase.InitEncoder), new(*abi.InitEncoder)),

	ProvideMigrationRegistry,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConflictResolver,

	interactive.NewFacetPicker,
	wire.Bind(new(usecase.FacetSelector), new(*interactive.FacetPicker)),

	ProvideProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	RepositorySet,
	SourceSet,
	ChainSet,
	InteractiveSet,
)
