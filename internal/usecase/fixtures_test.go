package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/adapters/simulated"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

const (
	// well-known anvil accounts 0 and 1
	operatorKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	outsiderKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

	initializerName = "ProtocolInitializationHandlerFacet"
)

const offerV1ABI = `[
{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"createOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"voidOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const offerV2ABI = `[
{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"createOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"extendOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const fundsABI = `[
{"type":"function","name":"withdrawFunds","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const extrasABI = `[
{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"withdrawFunds","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"payExtra","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

var (
	diamondAddr = common.HexToAddress("0x00000000000000000000000000000000000d1a30")
	accessAddr  = common.HexToAddress("0x00000000000000000000000000000000000ac0e5")
	offerAddr   = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	fundsAddr   = common.HexToAddress("0x0000000000000000000000000000000000000f02")
	initAddr    = common.HexToAddress("0x0000000000000000000000000000000000000f03")
	priceDisc   = common.HexToAddress("0x000000000000000000000000000000000000bd01")
	staleID     = domain.InterfaceID{0xde, 0xad, 0xbe, 0xef}
)

func sig(signature string) domain.Selector {
	var s domain.Selector
	copy(s[:], crypto.Keccak256([]byte(signature))[:4])
	return s
}

func parseABI(t *testing.T, raw string) *abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return &parsed
}

func addressOf(t *testing.T, key string) common.Address {
	t.Helper()
	k, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
	require.NoError(t, err)
	return crypto.PubkeyToAddress(k.PublicKey)
}

// modules holds the compiled facets of every revision the tests use.
type modules struct {
	offerV1     *models.CompiledModule
	offerV2     *models.CompiledModule
	funds       *models.CompiledModule
	extras      *models.CompiledModule
	initializer *models.CompiledModule
}

func newModules(t *testing.T) modules {
	t.Helper()
	return modules{
		offerV1:     &models.CompiledModule{Name: "OfferHandlerFacet", ABI: parseABI(t, offerV1ABI), Bytecode: []byte{0x01}, Interface: "IOfferHandler"},
		offerV2:     &models.CompiledModule{Name: "OfferHandlerFacet", ABI: parseABI(t, offerV2ABI), Bytecode: []byte{0x02}, Interface: "IOfferHandler"},
		funds:       &models.CompiledModule{Name: "FundsHandlerFacet", ABI: parseABI(t, fundsABI), Bytecode: []byte{0x03}},
		extras:      &models.CompiledModule{Name: "OfferExtrasFacet", ABI: parseABI(t, extrasABI), Bytecode: []byte{0x04}},
		initializer: &models.CompiledModule{Name: initializerName, ABI: bindings.NewProtocolInitializationHandler().ABI(), Bytecode: []byte{0x05}},
	}
}

// predecessor is the revision the live diamond was built from.
func (m modules) predecessor() *models.CompiledModuleSet {
	return &models.CompiledModuleSet{
		Revision: "v2.3.0",
		Modules: map[string]*models.CompiledModule{
			m.offerV1.Name:     m.offerV1,
			m.funds.Name:       m.funds,
			m.initializer.Name: m.initializer,
		},
		Interfaces: []domain.InterfaceDef{domain.NewInterfaceDef("IOfferHandler", m.offerV1.ABI)},
	}
}

// target is the revision being migrated to.
func (m modules) target() *models.CompiledModuleSet {
	return &models.CompiledModuleSet{
		Revision: "v2.4.0",
		Modules: map[string]*models.CompiledModule{
			m.offerV2.Name:     m.offerV2,
			m.funds.Name:       m.funds,
			m.extras.Name:      m.extras,
			m.initializer.Name: m.initializer,
		},
		Interfaces: []domain.InterfaceDef{domain.NewInterfaceDef("IOfferHandler", m.offerV2.ABI)},
	}
}

func interfaceID(t *testing.T, set *models.CompiledModuleSet, name string) domain.InterfaceID {
	t.Helper()
	module, err := set.Module(name)
	require.NoError(t, err)
	id, err := set.InterfaceIDOf(set.InterfaceGraph(), module)
	require.NoError(t, err)
	return id
}

// env is a deployed diamond at 2.3.0 with its address book.
type env struct {
	t         *testing.T
	cfg       *config.RuntimeConfig
	modules   modules
	diamond   *simulated.Diamond
	dialer    *simulated.Dialer
	snapshots *memSnapshots
	source    *fakeSource
	plans     *fakePlans
	resolver  *fixedResolver
	operator  common.Address
	log       *slog.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	m := newModules(t)
	e := &env{
		t: t,
		cfg: &config.RuntimeConfig{
			DataDir:     t.TempDir(),
			Environment: "test",
			Network:     &config.Network{ChainID: 31337, Name: "anvil", RPCURL: "http://127.0.0.1:8545"},
			SenderKey:   operatorKey,
			FacetConfig: &config.FacetConfig{BackfillBatchSize: 100},
		},
		modules:  m,
		diamond:  simulated.NewDiamond(31337, simulated.WithAddress(diamondAddr)),
		source:   &fakeSource{revisions: map[string]*models.CompiledModuleSet{"v2.3.0": m.predecessor(), "v2.4.0": m.target()}},
		plans:    &fakePlans{migrations: map[string]planEntry{}, upgrades: map[string]*models.UpgradeConfig{}},
		resolver: &fixedResolver{err: domain.ErrCollisionUnresolved},
		operator: addressOf(t, operatorKey),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	e.dialer = simulated.NewDialer(e.diamond)

	e.diamond.SeedFacet(offerAddr, m.offerV1)
	e.diamond.SeedFacet(fundsAddr, m.funds)
	e.diamond.SeedFacet(initAddr, m.initializer)
	e.diamond.SeedVersion("2.3.0")
	e.diamond.SeedState(func(s *protocolinit.State) {
		s.AddSeller(1, common.Address{})
		s.AddSeller(2, common.Address{})
		s.AddSeller(3, common.Address{})
	})
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUpgrader, domain.RolePauser} {
		e.diamond.SeedRole(role, e.operator)
	}
	e.diamond.SeedBalance(e.operator, big.NewInt(1e18))

	e.snapshots = newMemSnapshots(&models.RegistrySnapshot{
		ChainID:         31337,
		Network:         "anvil",
		Env:             "test",
		ProtocolVersion: "2.3.0",
		Contracts: []models.ContractEntry{
			{Name: models.DiamondContract, Address: diamondAddr},
			{Name: models.AccessControllerContract, Address: accessAddr},
			{Name: "OfferHandlerFacet", Address: offerAddr, InterfaceID: staleID},
			{Name: "FundsHandlerFacet", Address: fundsAddr},
			{Name: initializerName, Address: initAddr},
		},
	})
	return e
}

func (e *env) migrate() *usecase.MigrateProtocol {
	return usecase.NewMigrateProtocol(e.cfg, e.plans, e.snapshots, e.dialer, e.source, e.resolver, fakeEncoder{}, protocolinit.DefaultRegistry(), e.log, usecase.NopProgress{})
}

func (e *env) upgrade() *usecase.UpgradeFacets {
	return usecase.NewUpgradeFacets(e.cfg, e.plans, e.snapshots, e.dialer, fakeArtifacts{set: e.modules.target()}, e.resolver, fakeEncoder{}, protocolinit.DefaultRegistry(), nil, e.log, usecase.NopProgress{})
}

// v240Plan upgrades the offer handler and the initializer, drops voidOffer
// and backfills royalties for three sellers and one offer.
func (e *env) v240Plan() (*models.MigrationPlan, protocolinit.V240Payload) {
	plan := &models.MigrationPlan{
		Version:     "2.4.0",
		Requires:    "2.3.0",
		Revision:    "v2.4.0",
		Initializer: initializerName,
		Pause:       []string{"Offers"},
		Preimage:    &models.Preimage{Revision: "v2.3.0", Facets: []string{"OfferHandlerFacet"}},
		Facets: models.FacetChanges{Upgrade: []models.FacetSpec{
			{Name: "OfferHandlerFacet", Init: &models.FacetInit{}},
			{Name: initializerName},
		}},
		Backfill: &models.BackfillConfig{BatchSize: 2},
		Postconditions: models.Postconditions{
			Absent:  []string{sig("voidOffer(uint256)").String()},
			Present: []string{sig("extendOffer(uint256)").String()},
		},
	}
	payload := protocolinit.V240Payload{
		PriceDiscovery: priceDisc,
		Royalties: protocolinit.RoyaltyBackfill{Buckets: []protocolinit.RoyaltyBucket{
			{Percentage: big.NewInt(100), SellerIDs: []*big.Int{big.NewInt(1), big.NewInt(2)}, OfferIDs: []*big.Int{big.NewInt(10)}},
			{Percentage: big.NewInt(200), SellerIDs: []*big.Int{big.NewInt(3)}},
		}},
	}
	e.plans.migrations[plan.Version] = planEntry{plan: plan, payload: payload}
	return plan, payload
}

type planEntry struct {
	plan    *models.MigrationPlan
	payload protocolinit.Payload
}

type fakePlans struct {
	migrations map[string]planEntry
	upgrades   map[string]*models.UpgradeConfig
}

func (f *fakePlans) LoadMigration(_ context.Context, version string) (*models.MigrationPlan, protocolinit.Payload, error) {
	entry, ok := f.migrations[version]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return entry.plan, entry.payload, nil
}

func (f *fakePlans) LoadUpgrade(_ context.Context, path string) (*models.UpgradeConfig, error) {
	cfg, ok := f.upgrades[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func (f *fakePlans) ListMigrations(context.Context) ([]string, error) {
	var out []string
	for v := range f.migrations {
		out = append(out, v)
	}
	return out, nil
}

// fakeSource records every call in order.
type fakeSource struct {
	mu         sync.Mutex
	revisions  map[string]*models.CompiledModuleSet
	dirty      error
	restoreErr error
	calls      []string
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) CheckClean(context.Context) error {
	f.record("check")
	return f.dirty
}

func (f *fakeSource) InstallDependencies(context.Context) error {
	f.record("deps")
	return nil
}

func (f *fakeSource) Materialize(_ context.Context, revision string) (*models.CompiledModuleSet, error) {
	f.record("materialize " + revision)
	set, ok := f.revisions[revision]
	if !ok {
		return nil, errors.New("unknown revision " + revision)
	}
	return set, nil
}

func (f *fakeSource) Restore(context.Context) error {
	f.record("restore")
	return f.restoreErr
}

type fakeArtifacts struct {
	set *models.CompiledModuleSet
}

func (f fakeArtifacts) LoadCompiled(context.Context) (*models.CompiledModuleSet, error) {
	return f.set, nil
}

// fakeEncoder calls initialize() unless raw calldata is given.
type fakeEncoder struct{}

func (fakeEncoder) EncodeInit(module *models.CompiledModule, init *models.FacetInit) ([]byte, error) {
	if init.Calldata != "" {
		return hexutil.Decode(init.Calldata)
	}
	method, ok := module.ABI.Methods[domain.InitializerMethod]
	if !ok {
		return nil, errors.New(module.Name + " has no initializer")
	}
	return method.ID, nil
}

type fixedResolver struct {
	res  domain.Resolution
	err  error
	seen []domain.Collision
}

func (r *fixedResolver) Resolve(_ context.Context, c domain.Collision) (domain.Resolution, error) {
	r.seen = append(r.seen, c)
	return r.res, r.err
}

type memSnapshots struct {
	mu        sync.Mutex
	snapshots map[models.SnapshotKey]*models.RegistrySnapshot
	saves     int
}

func newMemSnapshots(snapshots ...*models.RegistrySnapshot) *memSnapshots {
	m := &memSnapshots{snapshots: make(map[models.SnapshotKey]*models.RegistrySnapshot)}
	for _, s := range snapshots {
		m.snapshots[s.Key()] = s
	}
	return m
}

func (m *memSnapshots) Load(_ context.Context, key models.SnapshotKey) (*models.RegistrySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memSnapshots) Save(_ context.Context, snapshot *models.RegistrySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.snapshots[snapshot.Key()] = snapshot.Clone()
	return nil
}

func (m *memSnapshots) current(t *testing.T) *models.RegistrySnapshot {
	t.Helper()
	s, err := m.Load(context.Background(), models.SnapshotKey{ChainID: 31337, Network: "anvil", Env: "test"})
	require.NoError(t, err)
	return s
}
