package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// FacetCut is one entry of a diamond cut.
type FacetCut struct {
	FacetAddress common.Address
	Action       domain.FacetCutAction
	Selectors    domain.SelectorSet
}

// FeeParams is opaque fee data supplied by the fee estimator.
type FeeParams struct {
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
}

// CutRequest is one atomic registry mutation.
type CutRequest struct {
	Cuts         []FacetCut
	InitTarget   *common.Address
	InitCalldata []byte
	Fee          FeeParams
}

// HasInit reports whether an initializer call is bundled.
func (r CutRequest) HasInit() bool {
	return r.InitTarget != nil
}

// SelectorCount counts selectors over all entries.
func (r CutRequest) SelectorCount() int {
	n := 0
	for _, c := range r.Cuts {
		n += c.Selectors.Len()
	}
	return n
}

// SplitCuts separates add/replace entries from remove entries. The two
// batches are always submitted as separate cuts.
func SplitCuts(cuts []FacetCut) (addReplace, remove []FacetCut) {
	for _, c := range cuts {
		if c.Selectors.IsEmpty() {
			continue
		}
		if c.Action == domain.CutRemove {
			remove = append(remove, c)
		} else {
			addReplace = append(addReplace, c)
		}
	}
	return addReplace, remove
}

// Receipt is a confirmed mutation.
type Receipt struct {
	TxHash          common.Hash
	BlockNumber     uint64
	GasUsed         uint64
	Confirmations   uint64
	ContractAddress common.Address
	Events          []ReceiptEvent
}

// ReceiptEvent is a decoded log the transaction emitted.
type ReceiptEvent struct {
	Name    string         `json:"name"`
	Emitter common.Address `json:"emitter"`
	Summary string         `json:"summary"`
}

// LoupeFacet is one facet as reported by the live DiamondLoupe.
type LoupeFacet struct {
	Address   common.Address
	Selectors domain.SelectorSet
}

// RoutingTable maps every routed selector to its facet address.
type RoutingTable map[domain.Selector]common.Address

// NewRoutingTable indexes loupe output.
func NewRoutingTable(facets []LoupeFacet) RoutingTable {
	table := make(RoutingTable)
	for _, f := range facets {
		for _, sel := range f.Selectors.Slice() {
			table[sel] = f.Address
		}
	}
	return table
}

// SelectorsAt returns the selectors the loupe reports for addr.
func SelectorsAt(facets []LoupeFacet, addr common.Address) domain.SelectorSet {
	for _, f := range facets {
		if f.Address == addr {
			return f.Selectors
		}
	}
	return domain.SelectorSet{}
}
