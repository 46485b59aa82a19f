package simulated

import (
	"bytes"
	"fmt"
	"maps"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
)

// Diamond is an in-memory diamond proxy. It keeps selector routing, deployed
// facet code, access roles, paused regions and the versioned initializer,
// and applies every mutation atomically.
type Diamond struct {
	mu sync.Mutex

	chainID    uint64
	address    common.Address
	migrations *protocolinit.Registry

	routing  map[domain.Selector]common.Address
	code     map[common.Address]*models.CompiledModule
	roles    map[domain.Role]map[common.Address]bool
	paused   map[domain.PauseRegion]bool
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	machine  *protocolinit.StateMachine
	events   []protocolinit.ProtocolInitialized
	block    uint64

	implicitSellers bool
	failures        map[Op]error
	history         []models.CutRequest
	calls           []Op
}

var backfillSelector = func() domain.Selector {
	var sel domain.Selector
	copy(sel[:], bindings.NewProtocolInitializationHandler().ABI().Methods["initV2_4_0External"].ID)
	return sel
}()

// Op names a mutating entrypoint, for failure injection and call tracing.
type Op string

const (
	OpDeploy   Op = "deploy"
	OpCut      Op = "cut"
	OpPause    Op = "pause"
	OpUnpause  Op = "unpause"
	OpBackfill Op = "backfill"
	OpGrant    Op = "grant"
	OpRevoke   Op = "revoke"
)

// Option configures a Diamond.
type Option func(*Diamond)

// WithAddress sets the proxy address.
func WithAddress(addr common.Address) Option {
	return func(d *Diamond) { d.address = addr }
}

// WithMigrations replaces the default version migrations.
func WithMigrations(r *protocolinit.Registry) Option {
	return func(d *Diamond) { d.migrations = r }
}

// WithImplicitSellers creates sellers referenced by a migration payload on
// first use, for rehearsals that cannot see real seller storage.
func WithImplicitSellers() Option {
	return func(d *Diamond) { d.implicitSellers = true }
}

// NewDiamond creates an empty diamond on chainID.
func NewDiamond(chainID uint64, opts ...Option) *Diamond {
	d := &Diamond{
		chainID:    chainID,
		address:    common.HexToAddress("0xd1a30d"),
		migrations: protocolinit.DefaultRegistry(),
		routing:    make(map[domain.Selector]common.Address),
		code:       make(map[common.Address]*models.CompiledModule),
		roles:      make(map[domain.Role]map[common.Address]bool),
		paused:     make(map[domain.PauseRegion]bool),
		balances:   make(map[common.Address]*big.Int),
		nonces:     make(map[common.Address]uint64),
		failures:   make(map[Op]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.machine = protocolinit.NewStateMachine(protocolinit.NewState(), d.migrations)
	return d
}

// Address returns the proxy address.
func (d *Diamond) Address() common.Address {
	return d.address
}

// SetCode places a compiled facet at addr without routing it.
func (d *Diamond) SetCode(addr common.Address, module *models.CompiledModule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.code[addr] = module
}

// SeedFacet places a facet at addr and routes all its selectors to it.
func (d *Diamond) SeedFacet(addr common.Address, module *models.CompiledModule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.code[addr] = module
	for _, sel := range module.Selectors().Slice() {
		d.routing[sel] = addr
	}
}

// SeedRole grants a role without an access check.
func (d *Diamond) SeedRole(role domain.Role, account common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grant(role, account)
}

// SeedBalance sets an account balance.
func (d *Diamond) SeedBalance(account common.Address, balance *big.Int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.balances[account] = new(big.Int).Set(balance)
}

// SeedState replaces the protocol storage, keeping the event log.
func (d *Diamond) SeedState(fn func(s *protocolinit.State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := d.machine.State()
	fn(&state)
	d.machine = protocolinit.NewStateMachine(state, d.migrations)
}

// SeedVersion records v as the current and only initialized version.
func (d *Diamond) SeedVersion(v string) {
	d.SeedState(func(s *protocolinit.State) {
		version := protocolinit.MustVersion(v)
		s.Version = version
		s.Initialized[version] = true
	})
}

// FailNext makes the next call of op fail with err.
func (d *Diamond) FailNext(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = err
}

// State returns a copy of the protocol storage.
func (d *Diamond) State() protocolinit.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.State()
}

// Events returns every ProtocolInitialized emitted.
func (d *Diamond) Events() []protocolinit.ProtocolInitialized {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocolinit.ProtocolInitialized(nil), d.events...)
}

// Routing returns a copy of the selector routing.
func (d *Diamond) Routing() models.RoutingTable {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.RoutingTable(maps.Clone(d.routing))
}

// History returns every confirmed cut in order.
func (d *Diamond) History() []models.CutRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.CutRequest(nil), d.history...)
}

// Calls returns every mutating call attempted, failed ones included.
func (d *Diamond) Calls() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.calls...)
}

// PausedRegions lists the paused regions in ascending order.
func (d *Diamond) PausedRegions() []domain.PauseRegion {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.PauseRegion
	for r, on := range d.paused {
		if on {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// facets groups routing by facet address, ordered by address.
func (d *Diamond) facets() []models.LoupeFacet {
	bySelector := make(map[common.Address][]domain.Selector)
	for sel, addr := range d.routing {
		bySelector[addr] = append(bySelector[addr], sel)
	}
	out := make([]models.LoupeFacet, 0, len(bySelector))
	for addr, sels := range bySelector {
		sort.Slice(sels, func(i, j int) bool { return bytes.Compare(sels[i][:], sels[j][:]) < 0 })
		out = append(out, models.LoupeFacet{Address: addr, Selectors: domain.NewSelectorSet(sels...)})
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0 })
	return out
}

func (d *Diamond) begin(op Op) error {
	d.calls = append(d.calls, op)
	if err, ok := d.failures[op]; ok {
		delete(d.failures, op)
		return err
	}
	return nil
}

func (d *Diamond) receipt(sender common.Address, contract common.Address) *models.Receipt {
	d.block++
	nonce := d.nonces[sender]
	d.nonces[sender] = nonce + 1
	return &models.Receipt{
		TxHash:          crypto.Keccak256Hash(sender[:], new(big.Int).SetUint64(nonce).Bytes(), new(big.Int).SetUint64(d.block).Bytes()),
		BlockNumber:     d.block,
		Confirmations:   1,
		ContractAddress: contract,
	}
}

func (d *Diamond) hasRole(role domain.Role, account common.Address) bool {
	return d.roles[role][account]
}

func (d *Diamond) grant(role domain.Role, account common.Address) {
	if d.roles[role] == nil {
		d.roles[role] = make(map[common.Address]bool)
	}
	d.roles[role][account] = true
}

func (d *Diamond) requireRole(role domain.Role, account common.Address) error {
	if !d.hasRole(role, account) {
		return d.revert("AccessDenied")
	}
	return nil
}

func (d *Diamond) revert(name string) error {
	if err, ok := protocolinit.ErrorByName(name); ok {
		return err
	}
	return &protocolinit.RevertError{Target: d.address.Hex(), Reason: name}
}

func (d *Diamond) deploy(sender common.Address, module *models.CompiledModule) (*models.Receipt, error) {
	if err := d.begin(OpDeploy); err != nil {
		return nil, err
	}
	addr := crypto.CreateAddress(sender, d.nonces[sender])
	d.code[addr] = module
	return d.receipt(sender, addr), nil
}

// cut applies one diamondCut. Routing and storage change only when every
// entry and the bundled initializer succeed.
func (d *Diamond) cut(sender common.Address, req models.CutRequest) (*models.Receipt, error) {
	if err := d.begin(OpCut); err != nil {
		return nil, err
	}
	if err := d.requireRole(domain.RoleUpgrader, sender); err != nil {
		return nil, err
	}

	next := maps.Clone(d.routing)
	for _, c := range req.Cuts {
		if c.Selectors.IsEmpty() {
			return nil, d.revert("NoSelectorsSupplied")
		}
		if c.Action != domain.CutRemove && d.code[c.FacetAddress] == nil {
			return nil, d.revert("NoCodeAtAddress")
		}
		for _, sel := range c.Selectors.Slice() {
			current, routed := next[sel]
			switch c.Action {
			case domain.CutAdd:
				if routed {
					return nil, fmt.Errorf("%w: %s", d.revert("FunctionAlreadyExists"), sel)
				}
				next[sel] = c.FacetAddress
			case domain.CutReplace:
				if !routed {
					return nil, fmt.Errorf("%w: %s", d.revert("FunctionDoesNotExist"), sel)
				}
				if current == c.FacetAddress {
					return nil, fmt.Errorf("%w: %s", d.revert("FunctionAlreadyExists"), sel)
				}
				next[sel] = c.FacetAddress
			case domain.CutRemove:
				if c.FacetAddress != (common.Address{}) {
					return nil, d.revert("FunctionNotAllowed")
				}
				if !routed {
					return nil, fmt.Errorf("%w: %s", d.revert("FunctionDoesNotExist"), sel)
				}
				delete(next, sel)
			}
		}
	}

	if req.InitTarget != nil {
		if err := d.callInit(*req.InitTarget, req.InitCalldata); err != nil {
			return nil, err
		}
	}

	d.routing = next
	d.history = append(d.history, req)
	return d.receipt(sender, common.Address{}), nil
}

// callInit delegates the bundled initializer call.
func (d *Diamond) callInit(target common.Address, calldata []byte) error {
	module := d.code[target]
	if module == nil {
		return d.revert("NoCodeAtAddress")
	}
	if len(calldata) < 4 {
		return &protocolinit.RevertError{Target: target.Hex()}
	}
	if sel := protocolinit.InitializeSelector(); !bytes.Equal(calldata[:4], sel[:]) {
		return d.facetInit(target, calldata, nil)
	}

	req, err := protocolinit.UnpackInitializeRequest(calldata)
	if err != nil {
		return &protocolinit.RevertError{Target: target.Hex()}
	}
	prev := d.machine
	if d.implicitSellers && req.IsUpgrade {
		d.createSellers(referencedSellers(req.Version, req.InitializationData))
	}
	ctx := protocolinit.CallContext{Self: d.address, Implementation: target}
	if err := d.machine.Initialize(ctx, *req, d.facetInit); err != nil {
		d.machine = prev
		return err
	}
	d.events = append(d.events, protocolinit.ProtocolInitialized{Version: req.Version})
	return nil
}

// facetInit runs a facet's own initializer. Any method the facet declares
// succeeds; anything else reverts without a reason.
func (d *Diamond) facetInit(target common.Address, calldata []byte, _ *protocolinit.State) error {
	module := d.code[target]
	if module == nil || module.ABI == nil || len(calldata) < 4 {
		return &protocolinit.RevertError{Target: target.Hex()}
	}
	if _, err := module.ABI.MethodById(calldata[:4]); err != nil {
		return &protocolinit.RevertError{Target: target.Hex()}
	}
	return nil
}

// sellerExists reports whether a seller is stored. With implicit sellers
// every id exists, since a referenced seller is created on first use.
func (d *Diamond) sellerExists(id *big.Int) bool {
	if d.implicitSellers {
		return true
	}
	_, ok := d.machine.State().Seller(id)
	return ok
}

func referencedSellers(version protocolinit.Version, data []byte) []*big.Int {
	switch version.String() {
	case "2.3.0":
		if p, err := protocolinit.DecodeV230Payload(data); err == nil {
			return protocolinit.ReferencedSellers(p)
		}
	case "2.4.0":
		if p, err := protocolinit.DecodeV240Payload(data); err == nil {
			return protocolinit.ReferencedSellers(p)
		}
	}
	return nil
}

// createSellers swaps in a machine whose state also holds the given sellers.
// Callers keep the previous machine to restore it if the call fails.
func (d *Diamond) createSellers(ids []*big.Int) {
	if len(ids) == 0 {
		return
	}
	state := d.machine.State()
	for _, id := range ids {
		if _, ok := state.Seller(id); !ok {
			state.Sellers[id.String()] = &protocolinit.Seller{ID: new(big.Int).Set(id)}
		}
	}
	d.machine = protocolinit.NewStateMachine(state, d.migrations)
}

func (d *Diamond) backfill(sender common.Address, batch protocolinit.RoyaltyBackfill) (*models.Receipt, error) {
	if err := d.begin(OpBackfill); err != nil {
		return nil, err
	}
	if err := d.requireRole(domain.RoleUpgrader, sender); err != nil {
		return nil, err
	}
	impl, routed := d.routing[backfillSelector]
	if !routed {
		return nil, d.revert("FunctionDoesNotExist")
	}
	prev := d.machine
	if d.implicitSellers {
		d.createSellers(batch.SellerIDs())
	}
	if err := d.machine.InitV240External(protocolinit.CallContext{Self: d.address, Implementation: impl}, batch); err != nil {
		d.machine = prev
		return nil, err
	}
	return d.receipt(sender, common.Address{}), nil
}

func (d *Diamond) setPaused(sender common.Address, regions []domain.PauseRegion, paused bool) (*models.Receipt, error) {
	op := OpPause
	if !paused {
		op = OpUnpause
	}
	if err := d.begin(op); err != nil {
		return nil, err
	}
	if err := d.requireRole(domain.RolePauser, sender); err != nil {
		return nil, err
	}
	if !paused && !lo.Contains(lo.Values(d.paused), true) {
		return nil, d.revert("NotPaused")
	}
	for _, r := range regions {
		d.paused[r] = paused
	}
	return d.receipt(sender, common.Address{}), nil
}

func (d *Diamond) setRole(sender common.Address, account common.Address, role domain.Role, granted bool) (*models.Receipt, error) {
	op := OpGrant
	if !granted {
		op = OpRevoke
	}
	if err := d.begin(op); err != nil {
		return nil, err
	}
	if err := d.requireRole(domain.RoleAdmin, sender); err != nil {
		return nil, err
	}
	if granted {
		d.grant(role, account)
	} else {
		delete(d.roles[role], account)
	}
	return d.receipt(sender, common.Address{}), nil
}
