package simulated

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// SeedFromSnapshot routes every recorded facet that has a compiled module to
// its recorded address, and restores the recorded version and interfaces.
// It returns the names of records that could not be seeded.
func SeedFromSnapshot(d *Diamond, snapshot *models.RegistrySnapshot, modules *models.CompiledModuleSet) []string {
	var skipped []string
	interfaces := make([]domain.InterfaceID, 0, len(snapshot.Contracts))
	for _, entry := range snapshot.Contracts {
		if entry.Name == models.DiamondContract || entry.Name == models.AccessControllerContract {
			continue
		}
		module, ok := modules.Modules[entry.Name]
		if !ok {
			skipped = append(skipped, entry.Name)
			continue
		}
		d.SeedFacet(entry.Address, module)
		if !entry.InterfaceID.IsEmpty() {
			interfaces = append(interfaces, entry.InterfaceID)
		}
	}

	d.SeedState(func(s *protocolinit.State) {
		if v, err := protocolinit.ParseVersion(snapshot.ProtocolVersion); err == nil && !v.IsZero() {
			s.Version = v
			s.Initialized[v] = true
		}
		for _, id := range interfaces {
			s.Interfaces[id] = true
		}
	})
	return skipped
}

// SeededDialer builds one simulated diamond from the address book and the
// current build on first dial. The operator holds every known role.
type SeededDialer struct {
	cfg       *config.RuntimeConfig
	snapshots usecase.SnapshotRepository
	artifacts usecase.ArtifactReader
	log       *slog.Logger

	once    sync.Once
	dialer  *Dialer
	seedErr error
}

// NewSeededDialer creates a dialer for offline rehearsals.
func NewSeededDialer(cfg *config.RuntimeConfig, snapshots usecase.SnapshotRepository, artifacts usecase.ArtifactReader, log *slog.Logger) *SeededDialer {
	return &SeededDialer{cfg: cfg, snapshots: snapshots, artifacts: artifacts, log: log.With("component", "simulator")}
}

// Dial seeds the diamond if needed and opens a session on it.
func (s *SeededDialer) Dial(ctx context.Context, params usecase.DialParams) (usecase.Session, error) {
	if params.PrivateKey == "" && params.Impersonate == nil {
		operator := OperatorAddress
		params.Impersonate = &operator
	}
	s.once.Do(func() { s.seedErr = s.seed(ctx, params) })
	if s.seedErr != nil {
		return nil, s.seedErr
	}
	return s.dialer.Dial(ctx, params)
}

func (s *SeededDialer) seed(ctx context.Context, params usecase.DialParams) error {
	if s.cfg.Network == nil {
		return fmt.Errorf("no network configured")
	}
	snapshot, err := s.snapshots.Load(ctx, models.SnapshotKey{
		ChainID: s.cfg.Network.ChainID,
		Network: s.cfg.Network.Name,
		Env:     s.cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to load address book: %w", err)
	}
	modules, err := s.artifacts.LoadCompiled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load compiled facets: %w", err)
	}

	d := NewDiamond(params.ChainID, WithAddress(params.Diamond), WithImplicitSellers())
	if skipped := SeedFromSnapshot(d, snapshot, modules); len(skipped) > 0 {
		s.log.Warn("address book records without artifacts were not seeded", "records", skipped)
	}
	operator, err := senderOf(params)
	if err != nil {
		return err
	}
	for _, name := range domain.KnownRoleNames() {
		role, _ := domain.ParseRole(name)
		d.SeedRole(role, operator)
	}
	s.log.Debug("seeded simulated diamond", "address", params.Diamond.Hex(), "operator", operator.Hex(), "version", snapshot.ProtocolVersion)
	s.dialer = NewDialer(d)
	return nil
}

// OperatorAddress is the sender used when no key is configured.
var OperatorAddress = common.HexToAddress("0x0000000000000000000000000000000000000f0c")

var _ usecase.SessionDialer = (*SeededDialer)(nil)
