package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
)

// RegistryStore reads and mutates the diamond's selector routing. Every read
// may be stale the moment it returns, so callers re-read before each cut.
type RegistryStore interface {
	ProtocolVersion(ctx context.Context) (protocolinit.Version, error)
	Facets(ctx context.Context) ([]models.LoupeFacet, error)
	FacetAddress(ctx context.Context, selector domain.Selector) (common.Address, error)
	SupportsInterface(ctx context.Context, id domain.InterfaceID) (bool, error)
	SellerExists(ctx context.Context, id *big.Int) (bool, error)
	// SubmitCut sends one diamondCut and waits for the configured number of
	// confirmations. A failed cut is never retried.
	SubmitCut(ctx context.Context, req models.CutRequest) (*models.Receipt, error)
}

// AccessRegistry is the access controller the diamond consults.
type AccessRegistry interface {
	HasRole(ctx context.Context, account common.Address, role domain.Role) (bool, error)
	GrantRole(ctx context.Context, account common.Address, role domain.Role) (*models.Receipt, error)
	RevokeRole(ctx context.Context, account common.Address, role domain.Role) (*models.Receipt, error)
}

// PauseController freezes and thaws protocol regions.
type PauseController interface {
	Pause(ctx context.Context, regions []domain.PauseRegion) (*models.Receipt, error)
	Unpause(ctx context.Context, regions []domain.PauseRegion) (*models.Receipt, error)
}

// FacetDeployer deploys compiled facets. The receipt carries the new address.
type FacetDeployer interface {
	Deploy(ctx context.Context, module *models.CompiledModule) (*models.Receipt, error)
}

// Backfiller sends follow-up data migration batches.
type Backfiller interface {
	BackfillRoyalties(ctx context.Context, batch protocolinit.RoyaltyBackfill) (*models.Receipt, error)
}

// FeeEstimator supplies the fee parameters passed along with each cut.
type FeeEstimator interface {
	SuggestFees(ctx context.Context) (models.FeeParams, error)
}

// Session is one authenticated connection to a deployed diamond.
type Session interface {
	RegistryStore
	AccessRegistry
	PauseController
	FacetDeployer
	Backfiller
	FeeEstimator

	ChainID() uint64
	Sender() common.Address
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	Close()
}

// DialParams describes the session to open.
type DialParams struct {
	RPCURL           string
	ChainID          uint64
	Diamond          common.Address
	AccessController common.Address
	PrivateKey       string
	// Impersonate sends unsigned transactions from this account. Only
	// meaningful against a fork that has it unlocked.
	Impersonate   *common.Address
	Confirmations uint64
	FeeMultiplier uint64
}

// SessionDialer opens sessions.
type SessionDialer interface {
	Dial(ctx context.Context, params DialParams) (Session, error)
}

// SnapshotRepository persists registry snapshots (address books).
type SnapshotRepository interface {
	Load(ctx context.Context, key models.SnapshotKey) (*models.RegistrySnapshot, error)
	Save(ctx context.Context, snapshot *models.RegistrySnapshot) error
}

// SourceMaterializer switches the contract sources to a revision and
// compiles them. Restore undoes every change made since CheckClean.
type SourceMaterializer interface {
	CheckClean(ctx context.Context) error
	InstallDependencies(ctx context.Context) error
	Materialize(ctx context.Context, revision string) (*models.CompiledModuleSet, error)
	Restore(ctx context.Context) error
}

// ArtifactReader loads the compiler output of the current working tree
// without touching sources.
type ArtifactReader interface {
	LoadCompiled(ctx context.Context) (*models.CompiledModuleSet, error)
}

// ConflictResolver decides selector collisions. Implementations without an
// operator must fail closed with domain.ErrCollisionUnresolved.
type ConflictResolver interface {
	Resolve(ctx context.Context, collision domain.Collision) (domain.Resolution, error)
}

// FacetSelector lets an operator pick a subset of facets.
type FacetSelector interface {
	SelectFacets(ctx context.Context, names []string) ([]string, error)
}

// PlanLoader reads migration and upgrade plans.
type PlanLoader interface {
	// LoadMigration returns the plan for a version and its decoded
	// initialization payload, nil when the plan carries none.
	LoadMigration(ctx context.Context, version string) (*models.MigrationPlan, protocolinit.Payload, error)
	LoadUpgrade(ctx context.Context, path string) (*models.UpgradeConfig, error)
	ListMigrations(ctx context.Context) ([]string, error)
}

// InitEncoder builds a facet's own initializer calldata.
type InitEncoder interface {
	EncodeInit(module *models.CompiledModule, init *models.FacetInit) ([]byte, error)
}

// ForkManager runs ephemeral forks of a live network.
type ForkManager interface {
	Start(ctx context.Context, instance *domain.AnvilInstance) error
	Stop(ctx context.Context, instance *domain.AnvilInstance) error
	SetBalance(ctx context.Context, instance *domain.AnvilInstance, account common.Address, balance *big.Int) error
	Impersonate(ctx context.Context, instance *domain.AnvilInstance, account common.Address) error
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
