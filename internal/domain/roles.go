package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is an access-controller role identifier, keccak256 of its name.
type Role common.Hash

const (
	RoleNameAdmin        = "ADMIN"
	RoleNamePauser       = "PAUSER"
	RoleNameProtocol     = "PROTOCOL"
	RoleNameClient       = "CLIENT"
	RoleNameUpgrader     = "UPGRADER"
	RoleNameFeeCollector = "FEE_COLLECTOR"
)

var (
	RoleAdmin        = NewRole(RoleNameAdmin)
	RolePauser       = NewRole(RoleNamePauser)
	RoleProtocol     = NewRole(RoleNameProtocol)
	RoleClient       = NewRole(RoleNameClient)
	RoleUpgrader     = NewRole(RoleNameUpgrader)
	RoleFeeCollector = NewRole(RoleNameFeeCollector)
)

var knownRoles = map[string]Role{
	RoleNameAdmin:        RoleAdmin,
	RoleNamePauser:       RolePauser,
	RoleNameProtocol:     RoleProtocol,
	RoleNameClient:       RoleClient,
	RoleNameUpgrader:     RoleUpgrader,
	RoleNameFeeCollector: RoleFeeCollector,
}

// NewRole hashes a role name.
func NewRole(name string) Role {
	return Role(crypto.Keccak256Hash([]byte(name)))
}

// ParseRole resolves a known role name or a 0x-prefixed 32-byte id.
func ParseRole(value string) (Role, error) {
	if r, ok := knownRoles[strings.ToUpper(strings.TrimSpace(value))]; ok {
		return r, nil
	}
	if strings.HasPrefix(value, "0x") && len(value) == 66 {
		return Role(common.HexToHash(value)), nil
	}
	return Role{}, fmt.Errorf("unknown role %q (known: %s)", value, strings.Join(KnownRoleNames(), ", "))
}

// KnownRoleNames lists the role names in sorted order.
func KnownRoleNames() []string {
	names := make([]string, 0, len(knownRoles))
	for n := range knownRoles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Name returns the role's name when it is a known role, else its hex id.
func (r Role) Name() string {
	for n, known := range knownRoles {
		if known == r {
			return n
		}
	}
	return common.Hash(r).Hex()
}

func (r Role) String() string {
	return r.Name()
}
