package protocolinit

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Payload is version-specific initialization data.
type Payload interface {
	Version() Version
	Pack() ([]byte, error)
}

var (
	uint256Type, _      = abi.NewType("uint256", "", nil)
	uint256ArrayType, _ = abi.NewType("uint256[]", "", nil)
	uint256GridType, _  = abi.NewType("uint256[][]", "", nil)
	addressType, _      = abi.NewType("address", "", nil)
	addressArrayType, _ = abi.NewType("address[]", "", nil)

	v220Args = abi.Arguments{{Name: "maxPremintedVouchers", Type: uint256Type}}
	v230Args = abi.Arguments{
		{Name: "minResolutionPeriod", Type: uint256Type},
		{Name: "sellerIds", Type: uint256ArrayType},
		{Name: "sellerCreators", Type: addressArrayType},
	}
	v240Args = abi.Arguments{
		{Name: "royaltyPercentages", Type: uint256ArrayType},
		{Name: "sellerIds", Type: uint256GridType},
		{Name: "offerIds", Type: uint256GridType},
		{Name: "priceDiscovery", Type: addressType},
	}
)

// V220Payload carries the preminted voucher limit.
type V220Payload struct {
	MaxPremintedVouchers *big.Int
}

func (V220Payload) Version() Version { return MustVersion("2.2.0") }

func (p V220Payload) Pack() ([]byte, error) {
	return v220Args.Pack(bigOrZero(p.MaxPremintedVouchers))
}

// DecodeV220Payload decodes (uint256 maxPremintedVouchers).
func DecodeV220Payload(data []byte) (*V220Payload, error) {
	out, err := v220Args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode 2.2.0 payload: %w", err)
	}
	return &V220Payload{MaxPremintedVouchers: *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)}, nil
}

// V230Payload carries the dispute resolution floor and the seller creator
// backfill as paired lists.
type V230Payload struct {
	MinResolutionPeriod *big.Int
	SellerIDs           []*big.Int
	SellerCreators      []common.Address
}

func (V230Payload) Version() Version { return MustVersion("2.3.0") }

func (p V230Payload) Pack() ([]byte, error) {
	return v230Args.Pack(bigOrZero(p.MinResolutionPeriod), bigs(p.SellerIDs), addrs(p.SellerCreators))
}

// DecodeV230Payload decodes (uint256, uint256[], address[]).
func DecodeV230Payload(data []byte) (*V230Payload, error) {
	out, err := v230Args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode 2.3.0 payload: %w", err)
	}
	return &V230Payload{
		MinResolutionPeriod: *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		SellerIDs:           *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int),
		SellerCreators:      *abi.ConvertType(out[2], new([]common.Address)).(*[]common.Address),
	}, nil
}

// V240Payload carries the first royalty backfill batch and the price
// discovery client address.
type V240Payload struct {
	Royalties      RoyaltyBackfill
	PriceDiscovery common.Address
}

func (V240Payload) Version() Version { return MustVersion("2.4.0") }

func (p V240Payload) Pack() ([]byte, error) {
	percentages, sellers, offers := p.Royalties.Columns()
	return v240Args.Pack(percentages, sellers, offers, p.PriceDiscovery)
}

// WithRoyalties returns a copy carrying a different backfill batch.
func (p V240Payload) WithRoyalties(r RoyaltyBackfill) V240Payload {
	p.Royalties = r
	return p
}

// DecodeV240Payload decodes (uint256[], uint256[][], uint256[][], address).
// Column lengths are not checked here; the initializer rejects a mismatch.
func DecodeV240Payload(data []byte) (*V240Payload, error) {
	out, err := v240Args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode 2.4.0 payload: %w", err)
	}
	percentages := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	sellers := *abi.ConvertType(out[1], new([][]*big.Int)).(*[][]*big.Int)
	offers := *abi.ConvertType(out[2], new([][]*big.Int)).(*[][]*big.Int)
	royalties, err := RoyaltyBackfillFromColumns(percentages, sellers, offers)
	if err != nil {
		return nil, err
	}
	return &V240Payload{
		Royalties:      royalties,
		PriceDiscovery: *abi.ConvertType(out[3], new(common.Address)).(*common.Address),
	}, nil
}

// ReferencedSellers lists the seller ids a payload writes to. Each must exist
// or the migration reverts with NoSuchSeller.
func ReferencedSellers(p Payload) []*big.Int {
	switch p := p.(type) {
	case V230Payload:
		return p.SellerIDs
	case *V230Payload:
		return p.SellerIDs
	case V240Payload:
		return p.Royalties.SellerIDs()
	case *V240Payload:
		return p.Royalties.SellerIDs()
	default:
		return nil
	}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func bigs(v []*big.Int) []*big.Int {
	out := make([]*big.Int, len(v))
	for i, x := range v {
		out[i] = bigOrZero(x)
	}
	return out
}

func addrs(v []common.Address) []common.Address {
	if v == nil {
		return []common.Address{}
	}
	return v
}
