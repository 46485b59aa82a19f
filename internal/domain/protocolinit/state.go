package protocolinit

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// Seller is the slice of seller storage the migrations touch.
type Seller struct {
	ID                *big.Int
	Creator           common.Address
	RoyaltyPercentage *big.Int
}

// State is the protocol storage owned by the initializer and its
// version-specific migrations.
type State struct {
	Version     Version
	Initialized map[Version]bool
	Interfaces  map[domain.InterfaceID]bool

	Sellers              map[string]*Seller // keyed by decimal seller id
	OfferRoyalties       map[string]*big.Int
	MaxPremintedVouchers *big.Int
	MinResolutionPeriod  *big.Int
	PriceDiscovery       common.Address
}

// NewState returns empty storage.
func NewState() State {
	return State{
		Initialized:    map[Version]bool{},
		Interfaces:     map[domain.InterfaceID]bool{},
		Sellers:        map[string]*Seller{},
		OfferRoyalties: map[string]*big.Int{},
	}
}

// Clone deep-copies the state so a failed call can be discarded.
func (s State) Clone() State {
	out := s
	out.Initialized = maps.Clone(s.Initialized)
	out.Interfaces = maps.Clone(s.Interfaces)
	out.Sellers = make(map[string]*Seller, len(s.Sellers))
	for k, v := range s.Sellers {
		c := *v
		out.Sellers[k] = &c
	}
	out.OfferRoyalties = maps.Clone(s.OfferRoyalties)
	if out.Initialized == nil {
		out.Initialized = map[Version]bool{}
	}
	if out.Interfaces == nil {
		out.Interfaces = map[domain.InterfaceID]bool{}
	}
	if out.OfferRoyalties == nil {
		out.OfferRoyalties = map[string]*big.Int{}
	}
	return out
}

// AddSeller registers an existing seller.
func (s *State) AddSeller(id int64, creator common.Address) {
	s.Sellers[big.NewInt(id).String()] = &Seller{ID: big.NewInt(id), Creator: creator}
}

// Seller looks a seller up by id.
func (s *State) Seller(id *big.Int) (*Seller, bool) {
	seller, ok := s.Sellers[id.String()]
	return seller, ok
}

// OfferRoyalty returns the backfilled royalty of an offer.
func (s *State) OfferRoyalty(id *big.Int) (*big.Int, bool) {
	v, ok := s.OfferRoyalties[id.String()]
	return v, ok
}
