package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// DryRunMigration rehearses a migration against an ephemeral fork of the
// live network. The operator is impersonated on the fork, so their role
// grants carry over, and address book writes never reach disk.
type DryRunMigration struct {
	cfg       *config.RuntimeConfig
	migrate   *MigrateProtocol
	snapshots SnapshotRepository
	dialer    SessionDialer
	forks     ForkManager
	log       *slog.Logger
	progress  ProgressSink
}

// NewDryRunMigration creates a new DryRunMigration use case
func NewDryRunMigration(
	cfg *config.RuntimeConfig,
	migrate *MigrateProtocol,
	snapshots SnapshotRepository,
	dialer SessionDialer,
	forks ForkManager,
	log *slog.Logger,
	progress ProgressSink,
) *DryRunMigration {
	return &DryRunMigration{
		cfg:       cfg,
		migrate:   migrate,
		snapshots: snapshots,
		dialer:    dialer,
		forks:     forks,
		log:       log.With("component", "dry-run"),
		progress:  progress,
	}
}

// DryRunParams contains parameters for a dry run
type DryRunParams struct {
	Version          string
	SkipDependencies bool
}

// Run forks the network, runs the migration on the fork and stops the fork.
func (uc *DryRunMigration) Run(ctx context.Context, params DryRunParams) (*models.MigrationResult, error) {
	snapshot, live, err := openSession(ctx, uc.cfg, uc.snapshots, uc.dialer, "", nil)
	if err != nil {
		return nil, err
	}
	operator := live.Sender()
	balance, err := live.Balance(ctx, operator)
	live.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read operator balance: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}
	privDir := filepath.Join(uc.cfg.DataDir, "priv")
	if err := os.MkdirAll(privDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create priv directory: %w", err)
	}
	name := fmt.Sprintf("dryrun-%s", uc.cfg.Network.Name)
	instance := &domain.AnvilInstance{
		Name:    name,
		Port:    strconv.Itoa(port),
		ChainID: strconv.FormatUint(snapshot.ChainID, 10),
		ForkURL: uc.cfg.Network.RPCURL,
		PidFile: filepath.Join(privDir, name+".pid"),
		LogFile: filepath.Join(privDir, name+".log"),
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "fork", Message: "Starting fork", Spinner: true})
	if err := uc.forks.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start fork: %w", err)
	}
	defer func() {
		if err := uc.forks.Stop(context.WithoutCancel(ctx), instance); err != nil {
			uc.log.Warn("failed to stop fork", "fork", instance.Name, "error", err)
		}
	}()

	if err := uc.forks.SetBalance(ctx, instance, operator, balance); err != nil {
		return nil, fmt.Errorf("failed to seed operator balance: %w", err)
	}
	if err := uc.forks.Impersonate(ctx, instance, operator); err != nil {
		return nil, fmt.Errorf("failed to impersonate operator: %w", err)
	}
	uc.log.Info("fork ready", "url", instance.RPCURL(), "operator", operator.Hex())

	scratch := &scratchSnapshots{base: uc.snapshots}
	result, err := uc.migrate.withSnapshots(scratch).Run(ctx, MigrateParams{
		Version:          params.Version,
		SkipDependencies: params.SkipDependencies,
		DryRun:           true,
		RPCURL:           instance.RPCURL(),
		Impersonate:      &operator,
	})
	if result != nil {
		result.DryRun = true
	}
	return result, err
}

// scratchSnapshots reads through to the real repository and keeps writes in
// memory.
type scratchSnapshots struct {
	base  SnapshotRepository
	saved map[models.SnapshotKey]*models.RegistrySnapshot
}

func (s *scratchSnapshots) Load(ctx context.Context, key models.SnapshotKey) (*models.RegistrySnapshot, error) {
	if snap, ok := s.saved[key]; ok {
		return snap.Clone(), nil
	}
	snap, err := s.base.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

func (s *scratchSnapshots) Save(_ context.Context, snapshot *models.RegistrySnapshot) error {
	if s.saved == nil {
		s.saved = make(map[models.SnapshotKey]*models.RegistrySnapshot)
	}
	s.saved[snapshot.Key()] = snapshot.Clone()
	return nil
}

// freePort finds an available TCP port
func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
