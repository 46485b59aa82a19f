package domain

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestDiff_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		old, next   SelectorSet
		skip        SelectorSet
		wantAdd     []string
		wantReplace []string
		wantRemove  []string
	}{
		{
			name:        "overlapping sets",
			old:         set("0x00000001", "0x00000002", "0x00000003"),
			next:        set("0x00000002", "0x00000003", "0x00000004"),
			wantAdd:     []string{"0x00000004"},
			wantReplace: []string{"0x00000002", "0x00000003"},
			wantRemove:  []string{"0x00000001"},
		},
		{
			name:        "skipped addition",
			old:         set("0x00000001", "0x00000002", "0x00000003"),
			next:        set("0x00000002", "0x00000003", "0x00000004"),
			skip:        set("0x00000004"),
			wantAdd:     []string{},
			wantReplace: []string{"0x00000002", "0x00000003"},
			wantRemove:  []string{"0x00000001"},
		},
		{
			name:        "new facet",
			next:        set("0x0000000a", "0x0000000b"),
			skip:        set("0x0000000b"),
			wantAdd:     []string{"0x0000000a"},
			wantReplace: []string{},
			wantRemove:  []string{},
		},
		{
			name:        "skip applies to remove and replace",
			old:         set("0x00000001", "0x00000002"),
			next:        set("0x00000002"),
			skip:        set("0x00000001", "0x00000002"),
			wantAdd:     []string{},
			wantReplace: []string{},
			wantRemove:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.old, tt.next, tt.skip)
			assert.Equal(t, tt.wantAdd, d.ToAdd.Strings())
			assert.Equal(t, tt.wantReplace, d.ToReplace.Strings())
			assert.Equal(t, tt.wantRemove, d.ToRemove.Strings())
		})
	}
}

func randomSet(rng *rand.Rand) SelectorSet {
	n := rng.Intn(12)
	sels := make([]Selector, 0, n)
	for i := 0; i < n; i++ {
		sels = append(sels, Selector{0, 0, 0, byte(rng.Intn(16))})
	}
	return NewSelectorSet(sels...)
}

func TestDiff_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		old, next, skip := randomSet(rng), randomSet(rng), randomSet(rng)
		d := Diff(old, next, skip)

		// pairwise disjoint
		assert.True(t, d.ToAdd.Intersect(d.ToReplace).IsEmpty())
		assert.True(t, d.ToReplace.Intersect(d.ToRemove).IsEmpty())
		assert.True(t, d.ToAdd.Intersect(d.ToRemove).IsEmpty())

		// exact relationship to the inputs
		assert.True(t, d.ToReplace.Equal(old.Intersect(next).Difference(skip)))
		assert.True(t, d.ToRemove.Equal(old.Difference(next).Difference(skip)))
		assert.True(t, d.ToAdd.Equal(next.Difference(old).Difference(skip)))

		// idempotence: once applied, the same target only replaces
		applied := Diff(old, next, SelectorSet{}).Apply(old)
		again := Diff(applied, next, SelectorSet{})
		assert.True(t, again.ToAdd.IsEmpty())
		assert.True(t, again.ToRemove.IsEmpty())
		assert.True(t, again.ToReplace.Equal(next))
	}
}

func TestFacetDiff_Resolve(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	sel := MustParseSelector("0x00000004")
	d := Diff(set("0x00000001"), set("0x00000001", "0x00000004", "0x00000005"), SelectorSet{})
	c := Collision{Selector: sel, Facet: "OfferHandlerFacet", Owner: owner, OwnerName: "ExchangeHandlerFacet"}

	t.Run("replace", func(t *testing.T) {
		got, skip := d.Resolve(c, ResolutionReplace, SelectorSet{})
		assert.Equal(t, []string{"0x00000005"}, got.ToAdd.Strings())
		assert.True(t, got.ToReplace.Contains(sel))
		assert.True(t, skip.IsEmpty())
		// receiver untouched
		assert.True(t, d.ToAdd.Contains(sel))
	})

	t.Run("skip", func(t *testing.T) {
		got, skip := d.Resolve(c, ResolutionSkip, SelectorSet{})
		assert.False(t, got.ToAdd.Contains(sel))
		assert.False(t, got.ToReplace.Contains(sel))
		assert.True(t, skip.Contains(sel))
	})

	t.Run("selector not being added", func(t *testing.T) {
		other := Collision{Selector: MustParseSelector("0x00000009"), Owner: owner}
		got, skip := d.Resolve(other, ResolutionReplace, SelectorSet{})
		assert.True(t, got.ToAdd.Equal(d.ToAdd))
		assert.True(t, skip.IsEmpty())
	})

	assert.Contains(t, c.String(), "ExchangeHandlerFacet")
}
