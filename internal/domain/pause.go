package domain

import (
	"fmt"
	"strings"
)

// PauseRegion is a protocol area that PauseHandler can freeze.
type PauseRegion uint8

const (
	PauseOffers PauseRegion = iota
	PauseTwins
	PauseBundles
	PauseGroups
	PauseSellers
	PauseBuyers
	PauseDisputeResolvers
	PauseAgents
	PauseExchanges
	PauseDisputes
	PauseFunds
	PauseOrchestration
	PauseMetaTransaction
	PausePriceDiscovery
	PauseSequentialCommit
)

var pauseRegionNames = []string{
	"Offers",
	"Twins",
	"Bundles",
	"Groups",
	"Sellers",
	"Buyers",
	"DisputeResolvers",
	"Agents",
	"Exchanges",
	"Disputes",
	"Funds",
	"Orchestration",
	"MetaTransaction",
	"PriceDiscovery",
	"SequentialCommit",
}

func (p PauseRegion) String() string {
	if int(p) < len(pauseRegionNames) {
		return pauseRegionNames[p]
	}
	return fmt.Sprintf("PauseRegion(%d)", uint8(p))
}

// ParsePauseRegion matches region names case-insensitively.
func ParsePauseRegion(value string) (PauseRegion, error) {
	for i, name := range pauseRegionNames {
		if strings.EqualFold(name, strings.TrimSpace(value)) {
			return PauseRegion(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pause region %q", value)
}

// ParsePauseRegions parses a list, preserving order.
func ParsePauseRegions(values []string) ([]PauseRegion, error) {
	out := make([]PauseRegion, 0, len(values))
	for _, v := range values {
		r, err := ParsePauseRegion(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// PauseRegionsToUint8 converts regions for ABI packing as uint8[].
func PauseRegionsToUint8(regions []PauseRegion) []uint8 {
	out := make([]uint8, len(regions))
	for i, r := range regions {
		out[i] = uint8(r)
	}
	return out
}
