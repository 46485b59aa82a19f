package bindings

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ProtocolInitializationHandlerMetaData is the versioned initializer facet.
var ProtocolInitializationHandlerMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"initialize","inputs":[{"name":"_version","type":"bytes32","internalType":"bytes32"},{"name":"_addresses","type":"address[]","internalType":"address[]"},{"name":"_calldata","type":"bytes[]","internalType":"bytes[]"},{"name":"_isUpgrade","type":"bool","internalType":"bool"},{"name":"_initializationData","type":"bytes","internalType":"bytes"},{"name":"_interfacesToRemove","type":"bytes4[]","internalType":"bytes4[]"},{"name":"_interfacesToAdd","type":"bytes4[]","internalType":"bytes4[]"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"initV2_4_0External","inputs":[{"name":"_royaltyPercentages","type":"uint256[]","internalType":"uint256[]"},{"name":"_sellerIds","type":"uint256[][]","internalType":"uint256[][]"},{"name":"_offerIds","type":"uint256[][]","internalType":"uint256[][]"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"getVersion","inputs":[],"outputs":[{"name":"version","type":"string","internalType":"string"}],"stateMutability":"view"},
{"type":"event","name":"ProtocolInitialized","inputs":[{"name":"version","type":"string","indexed":false,"internalType":"string"}],"anonymous":false},
{"type":"error","name":"VersionMustBeSet","inputs":[]},
{"type":"error","name":"AlreadyInitialized","inputs":[]},
{"type":"error","name":"AddressesCalldataLengthMismatch","inputs":[]},
{"type":"error","name":"DirectInitializationNotAllowed","inputs":[]},
{"type":"error","name":"ProtocolInitializationFailed","inputs":[]},
{"type":"error","name":"WrongCurrentVersion","inputs":[]},
{"type":"error","name":"ValueZeroNotAllowed","inputs":[]},
{"type":"error","name":"ArrayLengthMismatch","inputs":[]},
{"type":"error","name":"NoSuchSeller","inputs":[]}
]`,
	ID: "ProtocolInitializationHandler",
}

// ProtocolInitializationHandler binds the versioned initializer facet.
type ProtocolInitializationHandler struct {
	abi abi.ABI
}

// NewProtocolInitializationHandler creates a new instance of ProtocolInitializationHandler.
func NewProtocolInitializationHandler() *ProtocolInitializationHandler {
	parsed, err := ProtocolInitializationHandlerMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &ProtocolInitializationHandler{abi: *parsed}
}

// ABI exposes the parsed ABI.
func (h *ProtocolInitializationHandler) ABI() *abi.ABI {
	return &h.abi
}

// InitializeSelector is the 4-byte id of initialize(...).
func (h *ProtocolInitializationHandler) InitializeSelector() [4]byte {
	var sel [4]byte
	copy(sel[:], h.abi.Methods["initialize"].ID)
	return sel
}

// TryPackInitialize packs the parameters for initialize.
//
// Solidity: function initialize(bytes32 _version, address[] _addresses, bytes[] _calldata, bool _isUpgrade, bytes _initializationData, bytes4[] _interfacesToRemove, bytes4[] _interfacesToAdd)
func (h *ProtocolInitializationHandler) TryPackInitialize(version [32]byte, addresses []common.Address, calldata [][]byte, isUpgrade bool, initializationData []byte, interfacesToRemove [][4]byte, interfacesToAdd [][4]byte) ([]byte, error) {
	return h.abi.Pack("initialize", version, addresses, calldata, isUpgrade, initializationData, interfacesToRemove, interfacesToAdd)
}

// InitializeInput is the decoded argument list of initialize.
type InitializeInput struct {
	Version            [32]byte
	Addresses          []common.Address
	Calldata           [][]byte
	IsUpgrade          bool
	InitializationData []byte
	InterfacesToRemove [][4]byte
	InterfacesToAdd    [][4]byte
}

// UnpackInitializeInput decodes initialize calldata, with or without the
// leading selector.
func (h *ProtocolInitializationHandler) UnpackInitializeInput(data []byte) (*InitializeInput, error) {
	method := h.abi.Methods["initialize"]
	if len(data)%32 == 4 && bytes.Equal(data[:4], method.ID) {
		data = data[4:]
	}
	out, err := method.Inputs.Unpack(data)
	if err != nil {
		return nil, err
	}
	return &InitializeInput{
		Version:            *abi.ConvertType(out[0], new([32]byte)).(*[32]byte),
		Addresses:          *abi.ConvertType(out[1], new([]common.Address)).(*[]common.Address),
		Calldata:           *abi.ConvertType(out[2], new([][]byte)).(*[][]byte),
		IsUpgrade:          *abi.ConvertType(out[3], new(bool)).(*bool),
		InitializationData: *abi.ConvertType(out[4], new([]byte)).(*[]byte),
		InterfacesToRemove: *abi.ConvertType(out[5], new([][4]byte)).(*[][4]byte),
		InterfacesToAdd:    *abi.ConvertType(out[6], new([][4]byte)).(*[][4]byte),
	}, nil
}

// TryPackInitV240External packs the parameters for a 2.4.0 backfill batch.
//
// Solidity: function initV2_4_0External(uint256[] _royaltyPercentages, uint256[][] _sellerIds, uint256[][] _offerIds)
func (h *ProtocolInitializationHandler) TryPackInitV240External(percentages []*big.Int, sellerIDs [][]*big.Int, offerIDs [][]*big.Int) ([]byte, error) {
	return h.abi.Pack("initV2_4_0External", percentages, sellerIDs, offerIDs)
}

// UnpackInitV240ExternalInput decodes a backfill batch without the selector.
func (h *ProtocolInitializationHandler) UnpackInitV240ExternalInput(data []byte) ([]*big.Int, [][]*big.Int, [][]*big.Int, error) {
	out, err := h.abi.Methods["initV2_4_0External"].Inputs.Unpack(data)
	if err != nil {
		return nil, nil, nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int),
		*abi.ConvertType(out[1], new([][]*big.Int)).(*[][]*big.Int),
		*abi.ConvertType(out[2], new([][]*big.Int)).(*[][]*big.Int),
		nil
}

// PackGetVersion packs a call to getVersion.
func (h *ProtocolInitializationHandler) PackGetVersion() []byte {
	enc, err := h.abi.Pack("getVersion")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackGetVersion decodes the getVersion return data.
func (h *ProtocolInitializationHandler) UnpackGetVersion(data []byte) (string, error) {
	out, err := h.abi.Unpack("getVersion", data)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// ProtocolInitializedEvent represents a ProtocolInitialized log.
type ProtocolInitializedEvent struct {
	Version string
	Raw     *types.Log
}

// UnpackProtocolInitializedEvent decodes a ProtocolInitialized log.
//
// Solidity: event ProtocolInitialized(string version)
func (h *ProtocolInitializationHandler) UnpackProtocolInitializedEvent(log *types.Log) (*ProtocolInitializedEvent, error) {
	event := "ProtocolInitialized"
	if len(log.Topics) == 0 || log.Topics[0] != h.abi.Events[event].ID {
		return nil, errors.New("event signature mismatch")
	}
	out, err := h.abi.Events[event].Inputs.Unpack(log.Data)
	if err != nil {
		return nil, err
	}
	return &ProtocolInitializedEvent{
		Version: *abi.ConvertType(out[0], new(string)).(*string),
		Raw:     log,
	}, nil
}
