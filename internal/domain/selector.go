package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
)

// InitializerMethod is the reserved facet method that is never routed by the
// diamond. It is only reachable through a cut's init call.
const InitializerMethod = "initialize"

// Selector is the 4-byte identifier of an external function.
type Selector [4]byte

// SelectorFromBytes copies the first four bytes of b into a Selector.
func SelectorFromBytes(b []byte) (Selector, error) {
	var s Selector
	if len(b) != len(s) {
		return s, fmt.Errorf("selector must be 4 bytes, got %d", len(b))
	}
	copy(s[:], b)
	return s, nil
}

// ParseSelector parses a 0x-prefixed 4-byte hex string.
func ParseSelector(value string) (Selector, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(value))
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", value, err)
	}
	return SelectorFromBytes(raw)
}

// MustParseSelector is ParseSelector for constants and tests.
func MustParseSelector(value string) Selector {
	s, err := ParseSelector(value)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string {
	return hexutil.Encode(s[:])
}

// Xor returns the bitwise xor of both selectors.
func (s Selector) Xor(other Selector) Selector {
	var out Selector
	for i := range s {
		out[i] = s[i] ^ other[i]
	}
	return out
}

// IsZero reports whether every byte is zero.
func (s Selector) IsZero() bool {
	return s == Selector{}
}

func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Selector) UnmarshalText(text []byte) error {
	parsed, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SelectorSet is an ordered, duplicate free collection of selectors bound to
// one facet interface. Operations never modify the receiver.
type SelectorSet struct {
	items []Selector
}

// NewSelectorSet builds a set keeping the first occurrence of every selector.
func NewSelectorSet(selectors ...Selector) SelectorSet {
	return SelectorSet{items: lo.Uniq(selectors)}
}

// ParseSelectorSet parses hex selectors into a set.
func ParseSelectorSet(values []string) (SelectorSet, error) {
	selectors := make([]Selector, 0, len(values))
	for _, v := range values {
		s, err := ParseSelector(v)
		if err != nil {
			return SelectorSet{}, err
		}
		selectors = append(selectors, s)
	}
	return NewSelectorSet(selectors...), nil
}

func (s SelectorSet) Len() int {
	return len(s.items)
}

func (s SelectorSet) IsEmpty() bool {
	return len(s.items) == 0
}

// Slice returns a copy of the selectors in set order.
func (s SelectorSet) Slice() []Selector {
	out := make([]Selector, len(s.items))
	copy(out, s.items)
	return out
}

func (s SelectorSet) Contains(sel Selector) bool {
	return lo.Contains(s.items, sel)
}

// Intersect keeps the receiver's order.
func (s SelectorSet) Intersect(other SelectorSet) SelectorSet {
	return SelectorSet{items: lo.Filter(s.items, func(sel Selector, _ int) bool {
		return other.Contains(sel)
	})}
}

// Difference returns the selectors of s that are not in other.
func (s SelectorSet) Difference(other SelectorSet) SelectorSet {
	return SelectorSet{items: lo.Filter(s.items, func(sel Selector, _ int) bool {
		return !other.Contains(sel)
	})}
}

// Union appends the selectors of other that s does not hold yet.
func (s SelectorSet) Union(other SelectorSet) SelectorSet {
	return NewSelectorSet(append(s.Slice(), other.items...)...)
}

// Add returns a new set with sel appended.
func (s SelectorSet) Add(sel Selector) SelectorSet {
	return s.Union(NewSelectorSet(sel))
}

// Remove returns a new set without sel.
func (s SelectorSet) Remove(sel Selector) SelectorSet {
	return s.Difference(NewSelectorSet(sel))
}

// Equal compares membership only.
func (s SelectorSet) Equal(other SelectorSet) bool {
	return s.Len() == other.Len() && s.Difference(other).IsEmpty()
}

// Fold xors every selector together.
func (s SelectorSet) Fold() Selector {
	return lo.Reduce(s.items, func(acc Selector, sel Selector, _ int) Selector {
		return acc.Xor(sel)
	}, Selector{})
}

// Bytes4 converts the set for ABI packing as bytes4[].
func (s SelectorSet) Bytes4() [][4]byte {
	return lo.Map(s.items, func(sel Selector, _ int) [4]byte { return sel })
}

func (s SelectorSet) Strings() []string {
	return lo.Map(s.items, func(sel Selector, _ int) string { return sel.String() })
}

func (s SelectorSet) String() string {
	return "[" + strings.Join(s.Strings(), ", ") + "]"
}

func (s SelectorSet) MarshalJSON() ([]byte, error) {
	quoted := lo.Map(s.Strings(), func(v string, _ int) string { return `"` + v + `"` })
	return []byte("[" + strings.Join(quoted, ",") + "]"), nil
}

// ComputeSelectors returns the routable selectors of a compiled facet: every
// method except the reserved initializer, ordered by canonical signature.
func ComputeSelectors(contractABI *abi.ABI) SelectorSet {
	return selectorsOf(contractABI, func(m abi.Method) bool {
		return m.RawName != InitializerMethod
	})
}

// AllSelectors returns every method selector of an interface ABI.
func AllSelectors(contractABI *abi.ABI) SelectorSet {
	return selectorsOf(contractABI, func(abi.Method) bool { return true })
}

func selectorsOf(contractABI *abi.ABI, keep func(abi.Method) bool) SelectorSet {
	if contractABI == nil {
		return SelectorSet{}
	}
	methods := lo.Filter(lo.Values(contractABI.Methods), func(m abi.Method, _ int) bool {
		return keep(m)
	})
	sort.Slice(methods, func(i, j int) bool { return methods[i].Sig < methods[j].Sig })

	selectors := make([]Selector, 0, len(methods))
	for _, m := range methods {
		var sel Selector
		copy(sel[:], m.ID)
		selectors = append(selectors, sel)
	}
	return NewSelectorSet(selectors...)
}
