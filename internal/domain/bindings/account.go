package bindings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
)

// AccountHandlerMetaData is the seller lookup routed through the diamond.
// Only the leading exists flag of getSeller is declared; the seller and auth
// token tuples that follow it are not decoded.
var AccountHandlerMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"getSeller","inputs":[{"name":"_sellerId","type":"uint256","internalType":"uint256"}],"outputs":[{"name":"exists","type":"bool","internalType":"bool"}],"stateMutability":"view"}
]`,
	ID: "AccountHandler",
}

// AccountHandler binds the protocol account handler.
type AccountHandler struct {
	abi abi.ABI
}

// NewAccountHandler creates a new instance of AccountHandler.
func NewAccountHandler() *AccountHandler {
	parsed, err := AccountHandlerMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &AccountHandler{abi: *parsed}
}

// ABI exposes the parsed ABI.
func (a *AccountHandler) ABI() *abi.ABI {
	return &a.abi
}

// PackGetSeller packs a call to getSeller.
//
// Solidity: function getSeller(uint256 _sellerId) view returns (bool exists, ...)
func (a *AccountHandler) PackGetSeller(id *big.Int) []byte {
	enc, err := a.abi.Pack("getSeller", id)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackGetSellerExists decodes the exists flag from getSeller return data.
func (a *AccountHandler) UnpackGetSellerExists(data []byte) (bool, error) {
	out, err := a.abi.Unpack("getSeller", data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
