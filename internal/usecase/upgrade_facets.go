package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
)

// UpgradeFacets deploys and cuts in facets from the current build without
// advancing the protocol through a versioned migration.
type UpgradeFacets struct {
	cfg        *config.RuntimeConfig
	plans      PlanLoader
	snapshots  SnapshotRepository
	dialer     SessionDialer
	artifacts  ArtifactReader
	resolver   ConflictResolver
	encoder    InitEncoder
	migrations *protocolinit.Registry
	selector   FacetSelector
	log        *slog.Logger
	progress   ProgressSink
}

// NewUpgradeFacets creates a new UpgradeFacets use case
func NewUpgradeFacets(
	cfg *config.RuntimeConfig,
	plans PlanLoader,
	snapshots SnapshotRepository,
	dialer SessionDialer,
	artifacts ArtifactReader,
	resolver ConflictResolver,
	encoder InitEncoder,
	migrations *protocolinit.Registry,
	selector FacetSelector,
	log *slog.Logger,
	progress ProgressSink,
) *UpgradeFacets {
	return &UpgradeFacets{
		cfg:        cfg,
		plans:      plans,
		snapshots:  snapshots,
		dialer:     dialer,
		artifacts:  artifacts,
		resolver:   resolver,
		encoder:    encoder,
		migrations: migrations,
		selector:   selector,
		log:        log.With("component", "upgrade"),
		progress:   progress,
	}
}

// UpgradeParams contains parameters for a facet upgrade
type UpgradeParams struct {
	ConfigPath string
	// Only restricts the run to these facets of the config.
	Only []string
	// Pick asks the operator which facets to upgrade.
	Pick bool
}

// Run upgrades the facets listed in the config.
func (uc *UpgradeFacets) Run(ctx context.Context, params UpgradeParams) (*models.MigrationResult, error) {
	upgrade, err := uc.plans.LoadUpgrade(ctx, params.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load upgrade config: %w", err)
	}
	facets, err := uc.filterFacets(ctx, upgrade.Facets, params)
	if err != nil {
		return nil, err
	}
	if facets.IsEmpty() {
		return nil, fmt.Errorf("%w: no facets to upgrade in %s", domain.ErrInvalidPlan, params.ConfigPath)
	}

	runID := uuid.NewString()
	log := uc.log.With("run", runID)
	result := &models.MigrationResult{RunID: runID, ToVersion: upgrade.Version, Simulated: uc.cfg.Simulate, StartedAt: time.Now()}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: string(domain.StageAccess), Message: "Connecting", Spinner: true})
	snapshot, session, err := openSession(ctx, uc.cfg, uc.snapshots, uc.dialer, "", nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := requireRoles(ctx, session, session.Sender(), domain.RoleUpgrader); err != nil {
		return nil, err
	}

	var req *protocolinit.InitializeRequest
	if upgrade.Version != "" {
		version, err := protocolinit.ParseVersion(upgrade.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
		}
		// A registered migration needs its payload, which only a migration
		// plan carries.
		if _, ok := uc.migrations.Lookup(version); ok {
			return nil, fmt.Errorf("%w: %s has a versioned migration, run 'facet migrate %s' instead", domain.ErrInvalidPlan, version, version)
		}
		stored, err := session.ProtocolVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read protocol version: %w", err)
		}
		result.FromVersion = stored.String()
		req = &protocolinit.InitializeRequest{Version: version, IsUpgrade: true}
		if err := protocolinit.Preflight(stored, *req, uc.migrations); err != nil {
			return nil, err
		}
	}

	modules, err := uc.artifacts.LoadCompiled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load compiled facets: %w", err)
	}
	if err := modules.InterfaceGraph(uc.cfg.FacetConfig.InterfaceMarkers...).CheckAcyclic(); err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: string(domain.StageDeploy), Message: "Deploying facets", Spinner: true})
	deployed, err := deployFacets(ctx, session, modules, facets.All(), log)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: string(domain.StageCut), Message: "Cutting facets", Spinner: true})
	r := &reconciler{store: session, resolver: uc.resolver, snapshot: snapshot, log: log}
	plan, err := r.plan(ctx, deployed, facets.Remove)
	if err != nil {
		return nil, err
	}
	if err := assignInterfaces(modules, plan.changes, nil, uc.cfg.FacetConfig.InterfaceMarkers); err != nil {
		return nil, err
	}
	result.Facets, result.Orphaned = plan.changes, plan.orphaned

	initTarget, initCalldata, err := uc.initializer(upgrade, req, deployed, snapshot, result)
	if err != nil {
		return nil, err
	}
	receipts, err := submitCuts(ctx, session, session, plan.cuts, initTarget, initCalldata)
	result.Cuts = receipts
	if err != nil {
		return result, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: string(domain.StagePostcheck), Message: "Checking postconditions", Spinner: true})
	if result.Postconditions, err = checkPostconditions(ctx, session, upgrade.Postconditions, log); err != nil {
		return result, err
	}

	if err := applyChanges(ctx, session, snapshot, plan.changes, plan.orphaned, log); err != nil {
		return result, err
	}
	if upgrade.Version != "" {
		snapshot.ProtocolVersion = upgrade.Version
	}
	if err := uc.snapshots.Save(ctx, snapshot); err != nil {
		return result, fmt.Errorf("failed to save address book: %w", err)
	}
	result.Snapshot = snapshot
	result.FinishedAt = time.Now()
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "completed", Message: "Upgrade complete"})
	return result, nil
}

// initializer picks the bundled call. A versioned upgrade goes through the
// protocol initializer with every facet init as a sub-call; otherwise a
// single facet init is called directly.
func (uc *UpgradeFacets) initializer(upgrade *models.UpgradeConfig, req *protocolinit.InitializeRequest, deployed []deployedFacet, snapshot *models.RegistrySnapshot, result *models.MigrationResult) (*common.Address, []byte, error) {
	addresses, calldata, err := subInitializers(uc.encoder, deployed)
	if err != nil {
		return nil, nil, err
	}

	if req == nil {
		switch len(addresses) {
		case 0:
			return nil, nil, nil
		case 1:
			return &addresses[0], calldata[0], nil
		default:
			return nil, nil, fmt.Errorf("%w: %d facets carry an initializer, set version and initializer to bundle them", domain.ErrInvalidPlan, len(addresses))
		}
	}

	if upgrade.Initializer == "" {
		return nil, nil, fmt.Errorf("%w: version %s set without an initializer facet", domain.ErrInvalidPlan, upgrade.Version)
	}
	target, err := initializerAddress(upgrade.Initializer, deployed, snapshot)
	if err != nil {
		return nil, nil, err
	}
	req.Addresses, req.Calldata = addresses, calldata
	req.InterfacesToRemove, req.InterfacesToAdd = interfaceChanges(result.Facets)
	result.InterfacesRemoved, result.InterfacesAdded = req.InterfacesToRemove, req.InterfacesToAdd
	data, err := req.Pack()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode initialize: %w", err)
	}
	return &target, data, nil
}

func (uc *UpgradeFacets) filterFacets(ctx context.Context, facets models.FacetChanges, params UpgradeParams) (models.FacetChanges, error) {
	only := params.Only
	if len(only) == 0 && params.Pick && uc.selector != nil {
		names := lo.Map(facets.All(), func(s models.FacetSpec, _ int) string { return s.Name })
		picked, err := uc.selector.SelectFacets(ctx, names)
		if err != nil {
			return models.FacetChanges{}, err
		}
		only = picked
		if len(only) == 0 {
			return models.FacetChanges{}, nil
		}
	}
	if len(only) == 0 {
		return facets, nil
	}

	keep := func(s models.FacetSpec, _ int) bool { return lo.Contains(only, s.Name) }
	out := models.FacetChanges{
		Add:     lo.Filter(facets.Add, keep),
		Upgrade: lo.Filter(facets.Upgrade, keep),
		Remove:  lo.Filter(facets.Remove, func(name string, _ int) bool { return lo.Contains(only, name) }),
	}
	for _, name := range only {
		if !lo.ContainsBy(out.All(), func(s models.FacetSpec) bool { return s.Name == name }) && !lo.Contains(out.Remove, name) {
			return models.FacetChanges{}, fmt.Errorf("%w: facet %s is not listed in the upgrade config", domain.ErrInvalidPlan, name)
		}
	}
	return out, nil
}
