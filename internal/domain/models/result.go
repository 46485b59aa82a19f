package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// FacetChange records what happened to one facet during a run.
type FacetChange struct {
	Name           string
	OldAddress     common.Address
	NewAddress     common.Address
	Diff           domain.FacetDiff
	Skipped        domain.SelectorSet
	OldInterfaceID domain.InterfaceID
	NewInterfaceID domain.InterfaceID
	Removed        bool
}

// OrphanedSelector is a selector taken from another facet by a replace
// resolution. The other facet's record is updated after the cut confirms.
type OrphanedSelector struct {
	Selector domain.Selector
	From     string
	FromAddr common.Address
	TakenBy  string
}

// PostconditionResult is one checked routing fact.
type PostconditionResult struct {
	Selector domain.Selector
	Expected string // "absent" or "present"
	Actual   common.Address
	OK       bool
}

// BackfillBatch is one bounded backfill call.
type BackfillBatch struct {
	Index   int
	Items   int
	Receipt *Receipt
}

// MigrationResult summarises a finished run.
type MigrationResult struct {
	RunID             string
	FromVersion       string
	ToVersion         string
	DryRun            bool
	Simulated         bool
	Facets            []FacetChange
	Cuts              []*Receipt
	Orphaned          []OrphanedSelector
	InterfacesRemoved []domain.InterfaceID
	InterfacesAdded   []domain.InterfaceID
	Backfill          []BackfillBatch
	Postconditions    []PostconditionResult
	Paused            []domain.PauseRegion
	Snapshot          *RegistrySnapshot
	StartedAt         time.Time
	FinishedAt        time.Time
}

// PostconditionFailures returns the checks that did not hold.
func (r *MigrationResult) PostconditionFailures() []PostconditionResult {
	var out []PostconditionResult
	for _, p := range r.Postconditions {
		if !p.OK {
			out = append(out, p)
		}
	}
	return out
}
