package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// InterfaceID is an ERC-165 style identifier advertised by the diamond.
type InterfaceID Selector

// EmptyInterfaceID is reported when an interface folds to zero. It is an
// observable marker and is never registered on-chain.
var EmptyInterfaceID = InterfaceID{}

// ParseInterfaceID accepts "" and "empty" as EmptyInterfaceID.
func ParseInterfaceID(value string) (InterfaceID, error) {
	v := strings.TrimSpace(value)
	if v == "" || v == "empty" {
		return EmptyInterfaceID, nil
	}
	sel, err := ParseSelector(v)
	if err != nil {
		return EmptyInterfaceID, fmt.Errorf("invalid interface id: %w", err)
	}
	return InterfaceID(sel), nil
}

func (id InterfaceID) IsEmpty() bool {
	return id == EmptyInterfaceID
}

func (id InterfaceID) String() string {
	if id.IsEmpty() {
		return "empty"
	}
	return Selector(id).String()
}

// MarshalText writes empty ids as "" so address books keep a blank field.
func (id InterfaceID) MarshalText() ([]byte, error) {
	if id.IsEmpty() {
		return []byte{}, nil
	}
	return []byte(Selector(id).String()), nil
}

func (id *InterfaceID) UnmarshalText(text []byte) error {
	parsed, err := ParseInterfaceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// InterfaceDef describes one compiled interface: every selector in its ABI
// (inherited ones included) and the interfaces it directly extends.
type InterfaceDef struct {
	Name      string
	Selectors SelectorSet
	Extends   []string
}

// NewInterfaceDef builds a definition from a compiled interface ABI.
func NewInterfaceDef(name string, contractABI *abi.ABI, extends ...string) InterfaceDef {
	return InterfaceDef{
		Name:      name,
		Selectors: AllSelectors(contractABI),
		Extends:   extends,
	}
}

// InterfaceGraph resolves interface ids over an inheritance DAG.
type InterfaceGraph struct {
	defs    map[string]InterfaceDef
	markers map[string]bool
}

// NewInterfaceGraph indexes defs by name. Marker interfaces contribute the
// zero id wherever they appear in an inheritance chain.
func NewInterfaceGraph(defs []InterfaceDef, markers ...string) *InterfaceGraph {
	g := &InterfaceGraph{
		defs:    make(map[string]InterfaceDef, len(defs)),
		markers: make(map[string]bool, len(markers)),
	}
	for _, d := range defs {
		g.defs[d.Name] = d
	}
	for _, m := range markers {
		g.markers[m] = true
	}
	return g
}

// Has reports whether name is a known interface.
func (g *InterfaceGraph) Has(name string) bool {
	_, ok := g.defs[name]
	return ok
}

// ComputeInterfaceID folds the interface's own selectors and xors in the id of
// every interface it extends. Cycles are rejected.
func (g *InterfaceGraph) ComputeInterfaceID(name string) (InterfaceID, error) {
	memo := make(map[string]Selector)
	id, err := g.fold(name, memo, nil)
	if err != nil {
		return EmptyInterfaceID, err
	}
	return InterfaceID(id), nil
}

// CheckAcyclic validates the whole graph at the boundary.
func (g *InterfaceGraph) CheckAcyclic() error {
	memo := make(map[string]Selector)
	for name := range g.defs {
		if _, err := g.fold(name, memo, nil); err != nil {
			return err
		}
	}
	return nil
}

func (g *InterfaceGraph) fold(name string, memo map[string]Selector, path []string) (Selector, error) {
	for i, seen := range path {
		if seen == name {
			cycle := append(append([]string{}, path[i:]...), name)
			return Selector{}, fmt.Errorf("%w: %s", ErrInterfaceCycle, strings.Join(cycle, " -> "))
		}
	}
	if id, ok := memo[name]; ok {
		return id, nil
	}
	def, ok := g.defs[name]
	if !ok {
		return Selector{}, fmt.Errorf("interface %s: %w", name, ErrNotFound)
	}
	path = append(path, name)

	inherited, err := g.ancestorSelectors(def, path)
	if err != nil {
		return Selector{}, err
	}

	var id Selector
	if !g.markers[name] {
		id = def.Selectors.Difference(inherited).Fold()
		for _, parent := range def.Extends {
			parentID, err := g.fold(parent, memo, path)
			if err != nil {
				return Selector{}, err
			}
			id = id.Xor(parentID)
		}
	}
	memo[name] = id
	return id, nil
}

// ancestorSelectors collects every selector declared anywhere above def.
func (g *InterfaceGraph) ancestorSelectors(def InterfaceDef, path []string) (SelectorSet, error) {
	var out SelectorSet
	for _, parent := range def.Extends {
		for _, seen := range path {
			if seen == parent {
				cycle := append(append([]string{}, path...), parent)
				return out, fmt.Errorf("%w: %s", ErrInterfaceCycle, strings.Join(cycle, " -> "))
			}
		}
		pdef, ok := g.defs[parent]
		if !ok {
			return out, fmt.Errorf("interface %s extends unknown %s: %w", def.Name, parent, ErrNotFound)
		}
		out = out.Union(pdef.Selectors)
		above, err := g.ancestorSelectors(pdef, append(path, parent))
		if err != nil {
			return out, err
		}
		out = out.Union(above)
	}
	return out, nil
}
