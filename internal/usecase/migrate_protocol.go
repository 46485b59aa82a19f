package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
)

// MigrateProtocol runs one versioned protocol migration as a linear saga.
// Local sources are restored on every path; on-chain state is never rolled
// back.
type MigrateProtocol struct {
	cfg        *config.RuntimeConfig
	plans      PlanLoader
	snapshots  SnapshotRepository
	dialer     SessionDialer
	source     SourceMaterializer
	resolver   ConflictResolver
	encoder    InitEncoder
	migrations *protocolinit.Registry
	log        *slog.Logger
	progress   ProgressSink
}

// NewMigrateProtocol creates a new MigrateProtocol use case
func NewMigrateProtocol(
	cfg *config.RuntimeConfig,
	plans PlanLoader,
	snapshots SnapshotRepository,
	dialer SessionDialer,
	source SourceMaterializer,
	resolver ConflictResolver,
	encoder InitEncoder,
	migrations *protocolinit.Registry,
	log *slog.Logger,
	progress ProgressSink,
) *MigrateProtocol {
	return &MigrateProtocol{
		cfg:        cfg,
		plans:      plans,
		snapshots:  snapshots,
		dialer:     dialer,
		source:     source,
		resolver:   resolver,
		encoder:    encoder,
		migrations: migrations,
		log:        log.With("component", "migrate"),
		progress:   progress,
	}
}

// withSnapshots returns a copy that reads and writes address books through
// another repository.
func (uc *MigrateProtocol) withSnapshots(snapshots SnapshotRepository) *MigrateProtocol {
	out := *uc
	out.snapshots = snapshots
	return &out
}

// MigrateParams contains parameters for a migration run
type MigrateParams struct {
	Version          string
	SkipDependencies bool

	// Set by DryRunMigration.
	DryRun      bool
	RPCURL      string
	Impersonate *common.Address
}

// migrationRun is the state carried between saga steps.
type migrationRun struct {
	params   MigrateParams
	log      *slog.Logger
	plan     *models.MigrationPlan
	payload  protocolinit.Payload
	target   protocolinit.Version
	stored   protocolinit.Version
	session  Session
	snapshot *models.RegistrySnapshot
	result   *models.MigrationResult

	data     []byte
	backfill []protocolinit.RoyaltyBackfill
	preimage map[string]domain.InterfaceID
	regions  []domain.PauseRegion
	paused   bool
	modules  *models.CompiledModuleSet
	deployed []deployedFacet
	cuts     *reconcilePlan
}

// Run executes the migration to params.Version.
func (uc *MigrateProtocol) Run(ctx context.Context, params MigrateParams) (*models.MigrationResult, error) {
	runID := uuid.NewString()
	run := &migrationRun{
		params: params,
		log:    uc.log.With("run", runID, "version", params.Version),
		result: &models.MigrationResult{
			RunID:     runID,
			ToVersion: params.Version,
			DryRun:    params.DryRun,
			Simulated: uc.cfg.Simulate,
			StartedAt: time.Now(),
		},
	}
	defer func() {
		if run.session != nil {
			run.session.Close()
		}
	}()

	// Nothing local or on chain is touched before the working tree guard.
	if err := uc.step(ctx, run, domain.StagePreflight, "Checking protocol version", uc.preflight); err != nil {
		return nil, err
	}
	if err := uc.step(ctx, run, domain.StageAccess, "Checking roles", uc.checkAccess); err != nil {
		return nil, err
	}
	if err := uc.step(ctx, run, domain.StageWorkingTree, "Checking working tree", func(ctx context.Context, _ *migrationRun) error {
		return uc.source.CheckClean(ctx)
	}); err != nil {
		return nil, err
	}

	err := uc.mutate(ctx, run)
	if restoreErr := uc.source.Restore(ctx); restoreErr != nil {
		run.log.Error("failed to restore working tree", "error", restoreErr)
		if err == nil {
			err = uc.fail(run, domain.StageCommit, fmt.Errorf("failed to restore working tree: %w", restoreErr))
		}
	}
	if err != nil {
		if run.paused {
			run.log.Warn("protocol regions remain paused", "regions", run.regions)
		}
		return run.result, err
	}

	run.result.FinishedAt = time.Now()
	run.log.Info("migration complete", "from", run.result.FromVersion, "cuts", len(run.result.Cuts))
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "completed", Message: fmt.Sprintf("Protocol at %s", params.Version)})
	return run.result, nil
}

// mutate runs the steps that may change sources or chain state.
func (uc *MigrateProtocol) mutate(ctx context.Context, run *migrationRun) error {
	steps := []struct {
		stage   domain.MigrationStage
		message string
		fn      func(context.Context, *migrationRun) error
	}{
		{domain.StageDependencies, "Installing dependencies", uc.installDependencies},
		{domain.StagePreimage, "Capturing predecessor interfaces", uc.capturePreimage},
		{domain.StagePause, "Pausing protocol regions", uc.pause},
		{domain.StageMaterialize, "Compiling target revision", uc.materialize},
		{domain.StageDeploy, "Deploying facets", uc.deploy},
		{domain.StageCut, "Cutting facets", uc.cut},
		{domain.StageBackfill, "Backfilling", uc.runBackfill},
		{domain.StagePostcheck, "Checking postconditions", uc.postconditions},
		{domain.StageUnpause, "Unpausing protocol regions", uc.unpause},
		{domain.StageCommit, "Saving address book", uc.commit},
	}
	for _, s := range steps {
		if err := uc.step(ctx, run, s.stage, s.message, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (uc *MigrateProtocol) step(ctx context.Context, run *migrationRun, stage domain.MigrationStage, message string, fn func(context.Context, *migrationRun) error) error {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: string(stage), Message: message, Spinner: true})
	run.log.Debug("migration step", "stage", stage)
	if err := fn(ctx, run); err != nil {
		return uc.fail(run, stage, err)
	}
	return nil
}

func (uc *MigrateProtocol) fail(run *migrationRun, stage domain.MigrationStage, err error) error {
	run.log.Error("migration failed", "stage", stage, "error", err)
	var already *domain.MigrationError
	if errors.As(err, &already) {
		return err
	}
	return &domain.MigrationError{Version: run.params.Version, Stage: stage, Err: err}
}

func (uc *MigrateProtocol) preflight(ctx context.Context, run *migrationRun) error {
	plan, payload, err := uc.plans.LoadMigration(ctx, run.params.Version)
	if err != nil {
		return fmt.Errorf("failed to load migration plan: %w", err)
	}
	run.plan, run.payload = plan, payload

	if run.target, err = protocolinit.ParseVersion(plan.Version); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
	}
	requires, err := protocolinit.ParseVersion(plan.Requires)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
	}
	if run.regions, err = domain.ParsePauseRegions(plan.Pause); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
	}

	run.snapshot, run.session, err = openSession(ctx, uc.cfg, uc.snapshots, uc.dialer, run.params.RPCURL, run.params.Impersonate)
	if err != nil {
		return err
	}

	stored, err := run.session.ProtocolVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read protocol version: %w", err)
	}
	run.stored = stored
	run.result.FromVersion = stored.String()
	if stored != requires {
		return fmt.Errorf("%w: stored %q, %s requires %q", protocolinit.ErrWrongCurrentVersion, stored, plan.Version, plan.Requires)
	}

	if err := uc.preparePayload(run); err != nil {
		return err
	}
	if err := protocolinit.Preflight(stored, protocolinit.InitializeRequest{
		Version:            run.target,
		IsUpgrade:          plan.Upgrade(),
		InitializationData: run.data,
	}, uc.migrations); err != nil {
		return err
	}
	return checkSellers(ctx, run.session, run.payload)
}

// checkSellers fails when a seller the payload writes to is not stored. It
// covers every backfill batch, not only the one bundled with initialize.
func checkSellers(ctx context.Context, store RegistryStore, payload protocolinit.Payload) error {
	seen := make(map[string]bool)
	for _, id := range protocolinit.ReferencedSellers(payload) {
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		ok, err := store.SellerExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", protocolinit.ErrNoSuchSeller, id)
		}
	}
	return nil
}

// preparePayload packs the initialization data. A royalty backfill is split
// into bounded batches: the first rides along with initialize, the rest go
// through the dedicated backfill entrypoint.
func (uc *MigrateProtocol) preparePayload(run *migrationRun) error {
	if run.payload == nil {
		return nil
	}
	payload := run.payload
	if v240, ok := payload.(protocolinit.V240Payload); ok && !v240.Royalties.IsEmpty() {
		size := uc.cfg.FacetConfig.BackfillBatchSize
		if run.plan.Backfill != nil && run.plan.Backfill.BatchSize > 0 {
			size = run.plan.Backfill.BatchSize
		}
		batches, err := protocolinit.BatchBackfill(v240.Royalties, size)
		if err != nil {
			return err
		}
		payload = v240.WithRoyalties(batches[0])
		run.backfill = batches[1:]
		run.result.Backfill = append(run.result.Backfill, models.BackfillBatch{Index: 0, Items: batches[0].Items()})
	}
	data, err := payload.Pack()
	if err != nil {
		return fmt.Errorf("failed to encode %s initialization data: %w", run.plan.Version, err)
	}
	run.data = data
	return nil
}

func (uc *MigrateProtocol) checkAccess(ctx context.Context, run *migrationRun) error {
	roles := []domain.Role{domain.RoleUpgrader}
	if len(run.regions) > 0 {
		roles = append(roles, domain.RolePauser)
	}
	return requireRoles(ctx, run.session, run.session.Sender(), roles...)
}

func (uc *MigrateProtocol) installDependencies(ctx context.Context, run *migrationRun) error {
	if !run.plan.Dependencies || run.params.SkipDependencies || uc.cfg.SkipDependencies {
		return nil
	}
	return uc.source.InstallDependencies(ctx)
}

func (uc *MigrateProtocol) capturePreimage(ctx context.Context, run *migrationRun) error {
	pre := run.plan.Preimage
	if pre == nil {
		return nil
	}
	set, err := uc.source.Materialize(ctx, pre.Revision)
	if err != nil {
		return fmt.Errorf("failed to materialize %s: %w", pre.Revision, err)
	}
	graph := set.InterfaceGraph(uc.cfg.FacetConfig.InterfaceMarkers...)
	run.preimage = make(map[string]domain.InterfaceID, len(pre.Facets))
	for _, name := range pre.Facets {
		module, err := set.Module(name)
		if err != nil {
			return err
		}
		id, err := set.InterfaceIDOf(graph, module)
		if err != nil {
			return fmt.Errorf("failed to compute interface of %s at %s: %w", name, pre.Revision, err)
		}
		run.preimage[name] = id
	}
	return nil
}

func (uc *MigrateProtocol) pause(ctx context.Context, run *migrationRun) error {
	if len(run.regions) == 0 {
		return nil
	}
	if _, err := run.session.Pause(ctx, run.regions); err != nil {
		return err
	}
	run.paused = true
	run.result.Paused = run.regions
	run.log.Info("paused protocol regions", "regions", run.regions)
	return nil
}

func (uc *MigrateProtocol) materialize(ctx context.Context, run *migrationRun) error {
	set, err := uc.source.Materialize(ctx, run.plan.Revision)
	if err != nil {
		return fmt.Errorf("failed to materialize %s: %w", run.plan.Revision, err)
	}
	if err := set.InterfaceGraph(uc.cfg.FacetConfig.InterfaceMarkers...).CheckAcyclic(); err != nil {
		return err
	}
	run.modules = set
	return nil
}

func (uc *MigrateProtocol) deploy(ctx context.Context, run *migrationRun) error {
	deployed, err := deployFacets(ctx, run.session, run.modules, run.plan.Facets.All(), run.log)
	if err != nil {
		return err
	}
	run.deployed = deployed
	return nil
}

func (uc *MigrateProtocol) cut(ctx context.Context, run *migrationRun) error {
	r := &reconciler{store: run.session, resolver: uc.resolver, snapshot: run.snapshot, log: run.log}
	plan, err := r.plan(ctx, run.deployed, run.plan.Facets.Remove)
	if err != nil {
		return err
	}
	if err := assignInterfaces(run.modules, plan.changes, run.preimage, uc.cfg.FacetConfig.InterfaceMarkers); err != nil {
		return err
	}
	run.cuts = plan
	run.result.Facets = plan.changes
	run.result.Orphaned = plan.orphaned

	toRemove, toAdd := interfaceChanges(plan.changes)
	run.result.InterfacesRemoved, run.result.InterfacesAdded = toRemove, toAdd

	addresses, calldata, err := subInitializers(uc.encoder, run.deployed)
	if err != nil {
		return err
	}
	req := protocolinit.InitializeRequest{
		Version:            run.target,
		Addresses:          addresses,
		Calldata:           calldata,
		IsUpgrade:          run.plan.Upgrade(),
		InitializationData: run.data,
		InterfacesToRemove: toRemove,
		InterfacesToAdd:    toAdd,
	}
	if err := protocolinit.Preflight(run.stored, req, uc.migrations); err != nil {
		return err
	}
	initCalldata, err := req.Pack()
	if err != nil {
		return fmt.Errorf("failed to encode initialize: %w", err)
	}
	initTarget, err := initializerAddress(run.plan.Initializer, run.deployed, run.snapshot)
	if err != nil {
		return err
	}

	receipts, err := submitCuts(ctx, run.session, run.session, plan.cuts, &initTarget, initCalldata)
	run.result.Cuts = append(run.result.Cuts, receipts...)
	if err != nil {
		return err
	}
	if len(run.result.Backfill) > 0 && len(receipts) > 0 {
		run.result.Backfill[0].Receipt = receipts[len(receipts)-1]
	}
	run.log.Info("cut confirmed", "facets", len(plan.changes), "cuts", len(receipts))
	return nil
}

func (uc *MigrateProtocol) runBackfill(ctx context.Context, run *migrationRun) error {
	for i, batch := range run.backfill {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   string(domain.StageBackfill),
			Current: i + 1,
			Total:   len(run.backfill),
			Message: fmt.Sprintf("Backfilling batch %d/%d", i+1, len(run.backfill)),
			Spinner: true,
		})
		receipt, err := run.session.BackfillRoyalties(ctx, batch)
		if err != nil {
			return fmt.Errorf("backfill batch %d of %d: %w", i+1, len(run.backfill), err)
		}
		run.result.Backfill = append(run.result.Backfill, models.BackfillBatch{Index: i + 1, Items: batch.Items(), Receipt: receipt})
	}
	return nil
}

func (uc *MigrateProtocol) postconditions(ctx context.Context, run *migrationRun) error {
	results, err := checkPostconditions(ctx, run.session, run.plan.Postconditions, run.log)
	run.result.Postconditions = results
	return err
}

func (uc *MigrateProtocol) unpause(ctx context.Context, run *migrationRun) error {
	if !run.paused {
		return nil
	}
	if _, err := run.session.Unpause(ctx, run.regions); err != nil {
		return err
	}
	run.paused = false
	return nil
}

func (uc *MigrateProtocol) commit(ctx context.Context, run *migrationRun) error {
	if err := applyChanges(ctx, run.session, run.snapshot, run.cuts.changes, run.cuts.orphaned, run.log); err != nil {
		return err
	}
	run.snapshot.ProtocolVersion = run.plan.Version
	if err := uc.snapshots.Save(ctx, run.snapshot); err != nil {
		return fmt.Errorf("failed to save address book: %w", err)
	}
	run.result.Snapshot = run.snapshot
	return nil
}
