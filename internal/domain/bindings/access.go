package bindings

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
)

// AccessControllerMetaData is the role registry consulted before mutations.
var AccessControllerMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"hasRole","inputs":[{"name":"role","type":"bytes32","internalType":"bytes32"},{"name":"account","type":"address","internalType":"address"}],"outputs":[{"name":"","type":"bool","internalType":"bool"}],"stateMutability":"view"},
{"type":"function","name":"grantRole","inputs":[{"name":"role","type":"bytes32","internalType":"bytes32"},{"name":"account","type":"address","internalType":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"revokeRole","inputs":[{"name":"role","type":"bytes32","internalType":"bytes32"},{"name":"account","type":"address","internalType":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"getRoleAdmin","inputs":[{"name":"role","type":"bytes32","internalType":"bytes32"}],"outputs":[{"name":"","type":"bytes32","internalType":"bytes32"}],"stateMutability":"view"},
{"type":"event","name":"RoleGranted","inputs":[{"name":"role","type":"bytes32","indexed":true,"internalType":"bytes32"},{"name":"account","type":"address","indexed":true,"internalType":"address"},{"name":"sender","type":"address","indexed":true,"internalType":"address"}],"anonymous":false},
{"type":"event","name":"RoleRevoked","inputs":[{"name":"role","type":"bytes32","indexed":true,"internalType":"bytes32"},{"name":"account","type":"address","indexed":true,"internalType":"address"},{"name":"sender","type":"address","indexed":true,"internalType":"address"}],"anonymous":false}
]`,
	ID: "AccessController",
}

// AccessController binds IAccessControl.
type AccessController struct {
	abi abi.ABI
}

// NewAccessController creates a new instance of AccessController.
func NewAccessController() *AccessController {
	parsed, err := AccessControllerMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &AccessController{abi: *parsed}
}

// ABI exposes the parsed ABI.
func (a *AccessController) ABI() *abi.ABI {
	return &a.abi
}

// PackHasRole packs a call to hasRole.
//
// Solidity: function hasRole(bytes32 role, address account) view returns(bool)
func (a *AccessController) PackHasRole(role [32]byte, account common.Address) []byte {
	enc, err := a.abi.Pack("hasRole", role, account)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackHasRole decodes the hasRole return data.
func (a *AccessController) UnpackHasRole(data []byte) (bool, error) {
	out, err := a.abi.Unpack("hasRole", data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// PackGrantRole packs a call to grantRole.
//
// Solidity: function grantRole(bytes32 role, address account)
func (a *AccessController) PackGrantRole(role [32]byte, account common.Address) []byte {
	enc, err := a.abi.Pack("grantRole", role, account)
	if err != nil {
		panic(err)
	}
	return enc
}

// PackRevokeRole packs a call to revokeRole.
//
// Solidity: function revokeRole(bytes32 role, address account)
func (a *AccessController) PackRevokeRole(role [32]byte, account common.Address) []byte {
	enc, err := a.abi.Pack("revokeRole", role, account)
	if err != nil {
		panic(err)
	}
	return enc
}
