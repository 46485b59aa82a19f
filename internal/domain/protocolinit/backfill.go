package protocolinit

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RoyaltyBucket assigns one royalty percentage to a group of sellers and
// offers.
type RoyaltyBucket struct {
	Percentage *big.Int
	SellerIDs  []*big.Int
	OfferIDs   []*big.Int
}

// Items counts the sellers and offers in the bucket.
func (b RoyaltyBucket) Items() int {
	return len(b.SellerIDs) + len(b.OfferIDs)
}

// RoyaltyBackfill is the 2.4.0 data migration: per-bucket royalty
// percentages for existing sellers and offers.
type RoyaltyBackfill struct {
	Buckets []RoyaltyBucket
}

// Items counts every seller and offer across all buckets.
func (r RoyaltyBackfill) Items() int {
	n := 0
	for _, b := range r.Buckets {
		n += b.Items()
	}
	return n
}

// IsEmpty reports whether there is nothing to backfill.
func (r RoyaltyBackfill) IsEmpty() bool {
	return r.Items() == 0
}

// SellerIDs lists every seller id across all buckets.
func (r RoyaltyBackfill) SellerIDs() []*big.Int {
	var out []*big.Int
	for _, b := range r.Buckets {
		out = append(out, b.SellerIDs...)
	}
	return out
}

// Columns returns the paired-array wire form.
func (r RoyaltyBackfill) Columns() (percentages []*big.Int, sellers [][]*big.Int, offers [][]*big.Int) {
	percentages = make([]*big.Int, len(r.Buckets))
	sellers = make([][]*big.Int, len(r.Buckets))
	offers = make([][]*big.Int, len(r.Buckets))
	for i, b := range r.Buckets {
		percentages[i] = bigOrZero(b.Percentage)
		sellers[i] = bigs(b.SellerIDs)
		offers[i] = bigs(b.OfferIDs)
	}
	return percentages, sellers, offers
}

// RoyaltyBackfillFromColumns rebuilds buckets from the paired-array form. All
// three columns must have the same length.
func RoyaltyBackfillFromColumns(percentages []*big.Int, sellers, offers [][]*big.Int) (RoyaltyBackfill, error) {
	if len(percentages) != len(sellers) || len(percentages) != len(offers) {
		return RoyaltyBackfill{}, fmt.Errorf("%w: %d percentages, %d seller lists, %d offer lists",
			ErrArrayLengthMismatch, len(percentages), len(sellers), len(offers))
	}
	out := RoyaltyBackfill{Buckets: make([]RoyaltyBucket, len(percentages))}
	for i := range percentages {
		out.Buckets[i] = RoyaltyBucket{Percentage: percentages[i], SellerIDs: sellers[i], OfferIDs: offers[i]}
	}
	return out, nil
}

// EncodeV240Columns packs the 2.4.0 payload from raw columns without checking
// their lengths.
func EncodeV240Columns(percentages []*big.Int, sellers, offers [][]*big.Int, priceDiscovery common.Address) ([]byte, error) {
	return v240Args.Pack(percentages, sellers, offers, priceDiscovery)
}

// BatchBackfill splits a backfill into batches of at most maxItems sellers
// plus offers. Buckets are packed greedily in order and may span batches; a
// split bucket repeats its percentage in every batch it appears in. Every
// seller and offer lands in exactly one batch.
func BatchBackfill(r RoyaltyBackfill, maxItems int) ([]RoyaltyBackfill, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", maxItems)
	}

	var (
		batches []RoyaltyBackfill
		current RoyaltyBackfill
		room    = maxItems
	)
	flush := func() {
		if len(current.Buckets) > 0 {
			batches = append(batches, current)
		}
		current = RoyaltyBackfill{}
		room = maxItems
	}

	for _, b := range r.Buckets {
		sellers, offers := b.SellerIDs, b.OfferIDs
		for len(sellers) > 0 || len(offers) > 0 {
			if room == 0 {
				flush()
			}
			part := RoyaltyBucket{Percentage: b.Percentage}
			take := min(room, len(sellers))
			part.SellerIDs, sellers = sellers[:take], sellers[take:]
			room -= take
			take = min(room, len(offers))
			part.OfferIDs, offers = offers[:take], offers[take:]
			room -= take
			current.Buckets = append(current.Buckets, part)
		}
	}
	flush()
	return batches, nil
}
