package protocolinit

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Migration is a version-tagged extension of the initializer. It runs only
// on upgrades and only when the stored version equals Requires.
type Migration struct {
	Target   Version
	Requires Version

	// Validate checks the payload without reading storage.
	Validate func(data []byte) error
	// Apply validates against storage and performs the one-time backfill.
	Apply func(s *State, data []byte) error
}

// Registry holds the known version migrations.
type Registry struct {
	byVersion map[Version]Migration
}

// NewRegistry indexes migrations by target version.
func NewRegistry(migrations ...Migration) *Registry {
	r := &Registry{byVersion: make(map[Version]Migration, len(migrations))}
	for _, m := range migrations {
		r.byVersion[m.Target] = m
	}
	return r
}

// DefaultRegistry returns the 2.2.0, 2.3.0 and 2.4.0 migrations.
func DefaultRegistry() *Registry {
	return NewRegistry(v220Migration(), v230Migration(), v240Migration())
}

// Lookup returns the migration for a target version.
func (r *Registry) Lookup(v Version) (Migration, bool) {
	if r == nil {
		return Migration{}, false
	}
	m, ok := r.byVersion[v]
	return m, ok
}

func v220Migration() Migration {
	validate := func(data []byte) (*V220Payload, error) {
		p, err := DecodeV220Payload(data)
		if err != nil {
			return nil, err
		}
		if p.MaxPremintedVouchers.Sign() == 0 {
			return nil, fmt.Errorf("%w: maxPremintedVouchers", ErrValueZeroNotAllowed)
		}
		return p, nil
	}
	return Migration{
		Target:   MustVersion("2.2.0"),
		Requires: MustVersion("2.1.0"),
		Validate: func(data []byte) error {
			_, err := validate(data)
			return err
		},
		Apply: func(s *State, data []byte) error {
			p, err := validate(data)
			if err != nil {
				return err
			}
			s.MaxPremintedVouchers = new(big.Int).Set(p.MaxPremintedVouchers)
			return nil
		},
	}
}

func v230Migration() Migration {
	validate := func(data []byte) (*V230Payload, error) {
		p, err := DecodeV230Payload(data)
		if err != nil {
			return nil, err
		}
		if p.MinResolutionPeriod.Sign() == 0 {
			return nil, fmt.Errorf("%w: minResolutionPeriod", ErrValueZeroNotAllowed)
		}
		if len(p.SellerIDs) != len(p.SellerCreators) {
			return nil, fmt.Errorf("%w: %d seller ids, %d creators", ErrArrayLengthMismatch, len(p.SellerIDs), len(p.SellerCreators))
		}
		return p, nil
	}
	return Migration{
		Target:   MustVersion("2.3.0"),
		Requires: MustVersion("2.2.1"),
		Validate: func(data []byte) error {
			_, err := validate(data)
			return err
		},
		Apply: func(s *State, data []byte) error {
			p, err := validate(data)
			if err != nil {
				return err
			}
			s.MinResolutionPeriod = new(big.Int).Set(p.MinResolutionPeriod)
			for i, id := range p.SellerIDs {
				seller, ok := s.Seller(id)
				if !ok {
					return fmt.Errorf("%w: %s", ErrNoSuchSeller, id)
				}
				seller.Creator = p.SellerCreators[i]
			}
			return nil
		},
	}
}

func v240Migration() Migration {
	validate := func(data []byte) (*V240Payload, error) {
		p, err := DecodeV240Payload(data)
		if err != nil {
			return nil, err
		}
		if p.PriceDiscovery == (common.Address{}) {
			return nil, fmt.Errorf("%w: priceDiscovery", ErrValueZeroNotAllowed)
		}
		return p, nil
	}
	return Migration{
		Target:   MustVersion("2.4.0"),
		Requires: MustVersion("2.3.0"),
		Validate: func(data []byte) error {
			_, err := validate(data)
			return err
		},
		Apply: func(s *State, data []byte) error {
			p, err := validate(data)
			if err != nil {
				return err
			}
			s.PriceDiscovery = p.PriceDiscovery
			return applyRoyalties(s, p.Royalties)
		},
	}
}

// applyRoyalties writes percentages with overwrite semantics, so replaying a
// batch leaves storage unchanged.
func applyRoyalties(s *State, r RoyaltyBackfill) error {
	for _, b := range r.Buckets {
		pct := bigOrZero(b.Percentage)
		for _, id := range b.SellerIDs {
			seller, ok := s.Seller(id)
			if !ok {
				return fmt.Errorf("%w: %s", ErrNoSuchSeller, id)
			}
			seller.RoyaltyPercentage = new(big.Int).Set(pct)
		}
		for _, id := range b.OfferIDs {
			s.OfferRoyalties[id.String()] = new(big.Int).Set(pct)
		}
	}
	return nil
}
