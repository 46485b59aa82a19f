package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FacetDiff holds the three disjoint selector sets needed to move a facet
// from its registered interface to a newly compiled one.
type FacetDiff struct {
	ToAdd     SelectorSet
	ToReplace SelectorSet
	ToRemove  SelectorSet
}

// Diff computes add/replace/remove sets for one facet. old may be empty when
// the facet is new. Selectors in skip are dropped from every result set.
func Diff(old, next, skip SelectorSet) FacetDiff {
	replace := old.Intersect(next)
	return FacetDiff{
		ToAdd:     next.Difference(replace).Difference(skip),
		ToReplace: replace.Difference(skip),
		ToRemove:  old.Difference(replace).Difference(skip),
	}
}

// IsEmpty reports whether the diff leads to no cut entries at all.
func (d FacetDiff) IsEmpty() bool {
	return d.ToAdd.IsEmpty() && d.ToReplace.IsEmpty() && d.ToRemove.IsEmpty()
}

// Apply returns the routing that old would have after the diff was cut in.
func (d FacetDiff) Apply(old SelectorSet) SelectorSet {
	return old.Difference(d.ToRemove).Union(d.ToReplace).Union(d.ToAdd)
}

// Resolution is the operator's answer to a selector collision.
type Resolution int

const (
	// ResolutionReplace routes the selector to the facet being upgraded.
	ResolutionReplace Resolution = iota
	// ResolutionSkip leaves the selector with its current owner.
	ResolutionSkip
)

func (r Resolution) String() string {
	switch r {
	case ResolutionReplace:
		return "replace"
	case ResolutionSkip:
		return "skip"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// Collision is a selector the diff wants to add that the live registry
// already routes to a different facet.
type Collision struct {
	Selector  Selector
	Facet     string
	Owner     common.Address
	OwnerName string
}

func (c Collision) String() string {
	owner := c.OwnerName
	if owner == "" {
		owner = c.Owner.Hex()
	}
	return fmt.Sprintf("selector %s of %s is already routed to %s", c.Selector, c.Facet, owner)
}

// Resolve applies an operator decision for a colliding selector. On replace
// the selector moves from ToAdd to ToReplace; on skip it is added to skip and
// dropped from ToAdd. The returned skip set is the updated skip list.
func (d FacetDiff) Resolve(c Collision, res Resolution, skip SelectorSet) (FacetDiff, SelectorSet) {
	if !d.ToAdd.Contains(c.Selector) {
		return d, skip
	}
	out := d
	out.ToAdd = d.ToAdd.Remove(c.Selector)
	switch res {
	case ResolutionReplace:
		out.ToReplace = d.ToReplace.Add(c.Selector)
	case ResolutionSkip:
		skip = skip.Add(c.Selector)
	}
	return out, skip
}
