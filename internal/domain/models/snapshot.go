package models

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// ContractEntry is one module registration record in the address book.
type ContractEntry struct {
	Name        string             `json:"name"`
	Address     common.Address     `json:"address"`
	Args        []any              `json:"args"`
	InterfaceID domain.InterfaceID `json:"interfaceId"`
}

// RegistrySnapshot is the persisted view of a deployed diamond.
type RegistrySnapshot struct {
	ChainID         uint64          `json:"chainId"`
	Network         string          `json:"network"`
	Env             string          `json:"env"`
	ProtocolVersion string          `json:"protocolVersion"`
	Contracts       []ContractEntry `json:"contracts"`
}

// SnapshotKey locates one address book.
type SnapshotKey struct {
	ChainID uint64
	Network string
	Env     string
}

// Key returns the address book location of the snapshot.
func (s *RegistrySnapshot) Key() SnapshotKey {
	return SnapshotKey{ChainID: s.ChainID, Network: s.Network, Env: s.Env}
}

// Well-known record names.
const (
	DiamondContract          = "ProtocolDiamond"
	AccessControllerContract = "AccessController"
)

// Get looks a record up by name.
func (s *RegistrySnapshot) Get(name string) (*ContractEntry, error) {
	for i := range s.Contracts {
		if s.Contracts[i].Name == name {
			return &s.Contracts[i], nil
		}
	}
	return nil, domain.NewModuleNotFoundError(name, s.Names())
}

// GetByAddress finds the record deployed at addr.
func (s *RegistrySnapshot) GetByAddress(addr common.Address) (*ContractEntry, bool) {
	for i := range s.Contracts {
		if s.Contracts[i].Address == addr {
			return &s.Contracts[i], true
		}
	}
	return nil, false
}

// Names returns every record name.
func (s *RegistrySnapshot) Names() []string {
	names := make([]string, len(s.Contracts))
	for i, c := range s.Contracts {
		names[i] = c.Name
	}
	return names
}

// Address returns the address of a named record.
func (s *RegistrySnapshot) Address(name string) (common.Address, error) {
	entry, err := s.Get(name)
	if err != nil {
		return common.Address{}, err
	}
	return entry.Address, nil
}

// Upsert replaces the record with the same name or appends a new one.
func (s *RegistrySnapshot) Upsert(entry ContractEntry) {
	for i := range s.Contracts {
		if s.Contracts[i].Name == entry.Name {
			s.Contracts[i] = entry
			return
		}
	}
	s.Contracts = append(s.Contracts, entry)
}

// Remove drops the named record. It reports whether a record was removed.
func (s *RegistrySnapshot) Remove(name string) bool {
	for i := range s.Contracts {
		if s.Contracts[i].Name == name {
			s.Contracts = append(s.Contracts[:i], s.Contracts[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceContracts swaps the whole record list.
func (s *RegistrySnapshot) ReplaceContracts(entries []ContractEntry) {
	s.Contracts = append([]ContractEntry(nil), entries...)
}

// Validate enforces one record per name.
func (s *RegistrySnapshot) Validate() error {
	seen := make(map[string]bool, len(s.Contracts))
	for _, c := range s.Contracts {
		if c.Name == "" {
			return fmt.Errorf("address book entry at %s has no name", c.Address.Hex())
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate address book entry %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Clone deep-copies the record list.
func (s *RegistrySnapshot) Clone() *RegistrySnapshot {
	out := *s
	out.Contracts = make([]ContractEntry, len(s.Contracts))
	copy(out.Contracts, s.Contracts)
	return &out
}

// SortedNames returns record names in lexical order.
func (s *RegistrySnapshot) SortedNames() []string {
	names := s.Names()
	sort.Strings(names)
	return names
}
