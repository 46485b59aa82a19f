package models

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// CompiledModule is one facet as produced by the compiler for a revision.
type CompiledModule struct {
	Name      string
	ABI       *abi.ABI
	Bytecode  []byte
	Interface string // interface the facet advertises, empty when none
}

// Selectors returns the routable selectors of the facet.
func (m *CompiledModule) Selectors() domain.SelectorSet {
	return domain.ComputeSelectors(m.ABI)
}

// CompiledModuleSet is the compiler output for one source revision.
type CompiledModuleSet struct {
	Revision   string
	Modules    map[string]*CompiledModule
	Interfaces []domain.InterfaceDef
}

// Module returns a compiled facet by name.
func (s *CompiledModuleSet) Module(name string) (*CompiledModule, error) {
	if m, ok := s.Modules[name]; ok {
		return m, nil
	}
	names := make([]string, 0, len(s.Modules))
	for n := range s.Modules {
		names = append(names, n)
	}
	return nil, domain.NewModuleNotFoundError(name, names)
}

// InterfaceGraph builds the resolver over this revision's interfaces.
func (s *CompiledModuleSet) InterfaceGraph(markers ...string) *domain.InterfaceGraph {
	return domain.NewInterfaceGraph(s.Interfaces, markers...)
}

// InterfaceIDOf resolves the interface a facet advertises. Facets without an
// interface report EmptyInterfaceID.
func (s *CompiledModuleSet) InterfaceIDOf(graph *domain.InterfaceGraph, module *CompiledModule) (domain.InterfaceID, error) {
	if module.Interface == "" {
		return domain.EmptyInterfaceID, nil
	}
	return graph.ComputeInterfaceID(module.Interface)
}
