package simulated

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

const offerFacetABI = `[
{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"createOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"voidOffer","inputs":[{"name":"offerId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const fundsFacetABI = `[
{"type":"function","name":"withdrawFunds","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

var (
	operator = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	stranger = common.HexToAddress("0x000000000000000000000000000000000000bad0")
	seeded   = common.HexToAddress("0x0000000000000000000000000000000000000f01")
)

func module(t *testing.T, name, raw string) *models.CompiledModule {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return &models.CompiledModule{Name: name, ABI: &parsed, Bytecode: []byte{0x60, 0x80}}
}

func initializerModule() *models.CompiledModule {
	return &models.CompiledModule{
		Name:     "ProtocolInitializationHandlerFacet",
		ABI:      bindings.NewProtocolInitializationHandler().ABI(),
		Bytecode: []byte{0x60, 0x80},
	}
}

func newTestDiamond(t *testing.T) (*Diamond, *Session) {
	t.Helper()
	d := NewDiamond(31337)
	d.SeedRole(domain.RoleUpgrader, operator)
	d.SeedRole(domain.RolePauser, operator)
	d.SeedRole(domain.RoleAdmin, operator)
	return d, NewSession(d, operator)
}

func revertReason(t *testing.T, err error) string {
	t.Helper()
	var revert *protocolinit.RevertError
	require.True(t, errors.As(err, &revert), "expected revert, got %v", err)
	return revert.Reason
}

func TestDiamond_CutSemantics(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)
	offers := module(t, "OfferHandlerFacet", offerFacetABI)
	d.SeedFacet(seeded, offers)

	rcpt, err := session.Deploy(ctx, offers)
	require.NoError(t, err)
	fresh := rcpt.ContractAddress
	require.NotEqual(t, common.Address{}, fresh)

	tests := []struct {
		name   string
		cut    models.FacetCut
		reason string
	}{
		{
			name:   "add existing selector",
			cut:    models.FacetCut{FacetAddress: fresh, Action: domain.CutAdd, Selectors: offers.Selectors()},
			reason: "FunctionAlreadyExists",
		},
		{
			name:   "replace onto same address",
			cut:    models.FacetCut{FacetAddress: seeded, Action: domain.CutReplace, Selectors: offers.Selectors()},
			reason: "FunctionAlreadyExists",
		},
		{
			name:   "remove with facet address",
			cut:    models.FacetCut{FacetAddress: fresh, Action: domain.CutRemove, Selectors: offers.Selectors()},
			reason: "FunctionNotAllowed",
		},
		{
			name:   "add without code",
			cut:    models.FacetCut{FacetAddress: stranger, Action: domain.CutAdd, Selectors: offers.Selectors()},
			reason: "NoCodeAtAddress",
		},
		{
			name:   "no selectors",
			cut:    models.FacetCut{FacetAddress: fresh, Action: domain.CutAdd},
			reason: "NoSelectorsSupplied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.SubmitCut(ctx, models.CutRequest{Cuts: []models.FacetCut{tt.cut}})
			require.Error(t, err)
			assert.Equal(t, tt.reason, revertReason(t, err))
		})
	}

	_, err = session.SubmitCut(ctx, models.CutRequest{Cuts: []models.FacetCut{
		{FacetAddress: fresh, Action: domain.CutReplace, Selectors: offers.Selectors()},
	}})
	require.NoError(t, err)
	assert.Equal(t, offers.Selectors().Slice(), models.SelectorsAt(mustFacets(t, session), fresh).Slice())
	assert.Len(t, d.History(), 1)
}

func TestDiamond_CutIsAtomic(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)
	offers := module(t, "OfferHandlerFacet", offerFacetABI)
	funds := module(t, "FundsHandlerFacet", fundsFacetABI)

	rcpt, err := session.Deploy(ctx, funds)
	require.NoError(t, err)
	before := d.Routing()

	// initializer target exists but does not implement the call
	target := rcpt.ContractAddress
	_, err = session.SubmitCut(ctx, models.CutRequest{
		Cuts:         []models.FacetCut{{FacetAddress: target, Action: domain.CutAdd, Selectors: funds.Selectors()}},
		InitTarget:   &target,
		InitCalldata: offers.ABI.Methods["createOffer"].ID,
	})
	require.Error(t, err)
	assert.Empty(t, revertReason(t, err))
	assert.Equal(t, before, d.Routing())
	assert.Empty(t, d.History())
}

func TestDiamond_CutRunsVersionedInitializer(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)
	d.SeedVersion("2.1.0")
	funds := module(t, "FundsHandlerFacet", fundsFacetABI)

	initRcpt, err := session.Deploy(ctx, initializerModule())
	require.NoError(t, err)
	fundsRcpt, err := session.Deploy(ctx, funds)
	require.NoError(t, err)

	calldata, err := protocolinit.InitializeRequest{
		Version:         protocolinit.MustVersion("2.1.1"),
		IsUpgrade:       true,
		InterfacesToAdd: []domain.InterfaceID{{0x01, 0x02, 0x03, 0x04}},
	}.Pack()
	require.NoError(t, err)

	target := initRcpt.ContractAddress
	_, err = session.SubmitCut(ctx, models.CutRequest{
		Cuts:         []models.FacetCut{{FacetAddress: fundsRcpt.ContractAddress, Action: domain.CutAdd, Selectors: funds.Selectors()}},
		InitTarget:   &target,
		InitCalldata: calldata,
	})
	require.NoError(t, err)

	version, err := session.ProtocolVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.1.1", version.String())
	ok, err := session.SupportsInterface(ctx, domain.InterfaceID{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, d.Events(), 1)
}

func TestDiamond_SellerExists(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)
	d.SeedState(func(s *protocolinit.State) { s.AddSeller(1, common.Address{}) })

	ok, err := session.SellerExists(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = session.SellerExists(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.False(t, ok)

	implicit := NewDiamond(31337, WithImplicitSellers())
	ok, err = NewSession(implicit, operator).SellerExists(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDiamond_FailedInitializeKeepsImplicitSellersOut(t *testing.T) {
	ctx := context.Background()
	d := NewDiamond(31337, WithImplicitSellers())
	d.SeedRole(domain.RoleUpgrader, operator)
	d.SeedVersion("2.3.0")
	session := NewSession(d, operator)

	initRcpt, err := session.Deploy(ctx, initializerModule())
	require.NoError(t, err)

	// a zero price discovery address fails validation after the sellers
	// referenced by the backfill were created
	data, err := protocolinit.V240Payload{Royalties: protocolinit.RoyaltyBackfill{Buckets: []protocolinit.RoyaltyBucket{
		{Percentage: big.NewInt(100), SellerIDs: []*big.Int{big.NewInt(7)}},
	}}}.Pack()
	require.NoError(t, err)
	calldata, err := protocolinit.InitializeRequest{
		Version:            protocolinit.MustVersion("2.4.0"),
		IsUpgrade:          true,
		InitializationData: data,
	}.Pack()
	require.NoError(t, err)

	target := initRcpt.ContractAddress
	_, err = session.SubmitCut(ctx, models.CutRequest{InitTarget: &target, InitCalldata: calldata})
	require.Error(t, err)

	state := d.State()
	assert.Equal(t, "2.3.0", state.Version.String())
	_, created := state.Seller(big.NewInt(7))
	assert.False(t, created)
}

func TestDiamond_AccessChecks(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDiamond(t)
	outsider := NewSession(d, stranger)

	_, err := outsider.SubmitCut(ctx, models.CutRequest{})
	assert.Equal(t, "AccessDenied", revertReason(t, err))
	_, err = outsider.Pause(ctx, []domain.PauseRegion{domain.PauseOffers})
	assert.Equal(t, "AccessDenied", revertReason(t, err))
	_, err = outsider.GrantRole(ctx, stranger, domain.RoleAdmin)
	assert.Equal(t, "AccessDenied", revertReason(t, err))

	held, err := outsider.HasRole(ctx, operator, domain.RoleUpgrader)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestDiamond_PauseUnpause(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)

	_, err := session.Unpause(ctx, []domain.PauseRegion{domain.PauseOffers})
	assert.Equal(t, "NotPaused", revertReason(t, err))

	_, err = session.Pause(ctx, []domain.PauseRegion{domain.PauseFunds, domain.PauseOffers})
	require.NoError(t, err)
	assert.Equal(t, []domain.PauseRegion{domain.PauseOffers, domain.PauseFunds}, d.PausedRegions())

	_, err = session.Unpause(ctx, []domain.PauseRegion{domain.PauseOffers, domain.PauseFunds})
	require.NoError(t, err)
	assert.Empty(t, d.PausedRegions())
}

func TestDiamond_FailNext(t *testing.T) {
	ctx := context.Background()
	d, session := newTestDiamond(t)
	boom := errors.New("boom")
	d.FailNext(OpDeploy, boom)

	_, err := session.Deploy(ctx, module(t, "FundsHandlerFacet", fundsFacetABI))
	assert.ErrorIs(t, err, boom)
	_, err = session.Deploy(ctx, module(t, "FundsHandlerFacet", fundsFacetABI))
	assert.NoError(t, err)
	assert.Equal(t, []Op{OpDeploy, OpDeploy}, d.Calls())
}

func TestSeedFromSnapshot(t *testing.T) {
	d := NewDiamond(31337)
	offers := module(t, "OfferHandlerFacet", offerFacetABI)
	id := domain.InterfaceID{0xaa, 0xbb, 0xcc, 0xdd}

	snapshot := &models.RegistrySnapshot{
		ChainID:         31337,
		ProtocolVersion: "2.3.0",
		Contracts: []models.ContractEntry{
			{Name: models.DiamondContract, Address: d.Address()},
			{Name: "OfferHandlerFacet", Address: seeded, InterfaceID: id},
			{Name: "GoneFacet", Address: stranger},
		},
	}
	skipped := SeedFromSnapshot(d, snapshot, &models.CompiledModuleSet{
		Modules: map[string]*models.CompiledModule{"OfferHandlerFacet": offers},
	})

	assert.Equal(t, []string{"GoneFacet"}, skipped)
	for _, sel := range offers.Selectors().Slice() {
		assert.Equal(t, seeded, d.Routing()[sel])
	}
	state := d.State()
	assert.Equal(t, "2.3.0", state.Version.String())
	assert.True(t, state.Interfaces[id])
}

func TestDialer(t *testing.T) {
	ctx := context.Background()
	d := NewDiamond(31337)
	d.SeedBalance(operator, big.NewInt(7))
	dialer := NewDialer(d)

	_, err := dialer.Dial(ctx, usecase.DialParams{Diamond: stranger, Impersonate: &operator})
	assert.Error(t, err)

	_, err = dialer.Dial(ctx, usecase.DialParams{Diamond: d.Address()})
	assert.Error(t, err)

	session, err := dialer.Dial(ctx, usecase.DialParams{
		Diamond:    d.Address(),
		PrivateKey: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), session.Sender())

	session, err = dialer.Dial(ctx, usecase.DialParams{Diamond: d.Address(), Impersonate: &operator})
	require.NoError(t, err)
	balance, err := session.Balance(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())
}

func mustFacets(t *testing.T, s *Session) []models.LoupeFacet {
	t.Helper()
	facets, err := s.Facets(context.Background())
	require.NoError(t, err)
	return facets
}
