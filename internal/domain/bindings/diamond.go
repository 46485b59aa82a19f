package bindings

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// IDiamondCutFacetCut mirrors the IDiamondCut.FacetCut struct.
type IDiamondCutFacetCut struct {
	FacetAddress      common.Address
	Action            uint8
	FunctionSelectors [][4]byte
}

// IDiamondLoupeFacet mirrors the IDiamondLoupe.Facet struct.
type IDiamondLoupeFacet struct {
	FacetAddress      common.Address
	FunctionSelectors [][4]byte
}

// DiamondMetaData holds the cut, loupe and ERC-165 surface of the diamond.
var DiamondMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"diamondCut","inputs":[{"name":"_facetCuts","type":"tuple[]","internalType":"struct IDiamondCut.FacetCut[]","components":[{"name":"facetAddress","type":"address","internalType":"address"},{"name":"action","type":"uint8","internalType":"enum IDiamondCut.FacetCutAction"},{"name":"functionSelectors","type":"bytes4[]","internalType":"bytes4[]"}]},{"name":"_init","type":"address","internalType":"address"},{"name":"_calldata","type":"bytes","internalType":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"facets","inputs":[],"outputs":[{"name":"facets_","type":"tuple[]","internalType":"struct IDiamondLoupe.Facet[]","components":[{"name":"facetAddress","type":"address","internalType":"address"},{"name":"functionSelectors","type":"bytes4[]","internalType":"bytes4[]"}]}],"stateMutability":"view"},
{"type":"function","name":"facetFunctionSelectors","inputs":[{"name":"_facet","type":"address","internalType":"address"}],"outputs":[{"name":"facetFunctionSelectors_","type":"bytes4[]","internalType":"bytes4[]"}],"stateMutability":"view"},
{"type":"function","name":"facetAddresses","inputs":[],"outputs":[{"name":"facetAddresses_","type":"address[]","internalType":"address[]"}],"stateMutability":"view"},
{"type":"function","name":"facetAddress","inputs":[{"name":"_functionSelector","type":"bytes4","internalType":"bytes4"}],"outputs":[{"name":"facetAddress_","type":"address","internalType":"address"}],"stateMutability":"view"},
{"type":"function","name":"supportsInterface","inputs":[{"name":"_interfaceId","type":"bytes4","internalType":"bytes4"}],"outputs":[{"name":"","type":"bool","internalType":"bool"}],"stateMutability":"view"},
{"type":"event","name":"DiamondCut","inputs":[{"name":"_facetCuts","type":"tuple[]","indexed":false,"internalType":"struct IDiamondCut.FacetCut[]","components":[{"name":"facetAddress","type":"address","internalType":"address"},{"name":"action","type":"uint8","internalType":"enum IDiamondCut.FacetCutAction"},{"name":"functionSelectors","type":"bytes4[]","internalType":"bytes4[]"}]},{"name":"_init","type":"address","indexed":false,"internalType":"address"},{"name":"_calldata","type":"bytes","indexed":false,"internalType":"bytes"}],"anonymous":false},
{"type":"error","name":"FunctionAlreadyExists","inputs":[{"name":"selector","type":"bytes4","internalType":"bytes4"}]},
{"type":"error","name":"FunctionDoesNotExist","inputs":[]},
{"type":"error","name":"FunctionNotAllowed","inputs":[]},
{"type":"error","name":"NoSelectorsSupplied","inputs":[]},
{"type":"error","name":"NoCodeAtAddress","inputs":[]},
{"type":"error","name":"AccessDenied","inputs":[]}
]`,
	ID: "Diamond",
}

// Diamond binds the proxy's cut, loupe and ERC-165 entrypoints.
type Diamond struct {
	abi abi.ABI
}

// NewDiamond creates a new instance of Diamond.
func NewDiamond() *Diamond {
	parsed, err := DiamondMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &Diamond{abi: *parsed}
}

// Instance creates a wrapper for a deployed diamond at the given address.
func (d *Diamond) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, d.abi, backend, backend, backend)
}

// ABI exposes the parsed ABI.
func (d *Diamond) ABI() *abi.ABI {
	return &d.abi
}

// TryPackDiamondCut packs the parameters for diamondCut.
//
// Solidity: function diamondCut((address,uint8,bytes4[])[] _facetCuts, address _init, bytes _calldata)
func (d *Diamond) TryPackDiamondCut(cuts []IDiamondCutFacetCut, init common.Address, calldata []byte) ([]byte, error) {
	return d.abi.Pack("diamondCut", cuts, init, calldata)
}

// UnpackDiamondCutInput decodes diamondCut calldata without the selector.
func (d *Diamond) UnpackDiamondCutInput(data []byte) ([]IDiamondCutFacetCut, common.Address, []byte, error) {
	out, err := d.abi.Methods["diamondCut"].Inputs.Unpack(data)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	cuts := *abi.ConvertType(out[0], new([]IDiamondCutFacetCut)).(*[]IDiamondCutFacetCut)
	init := *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	calldata := *abi.ConvertType(out[2], new([]byte)).(*[]byte)
	return cuts, init, calldata, nil
}

// PackFacets packs a call to facets().
//
// Solidity: function facets() view returns((address,bytes4[])[] facets_)
func (d *Diamond) PackFacets() []byte {
	enc, err := d.abi.Pack("facets")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackFacets decodes the facets() return data.
func (d *Diamond) UnpackFacets(data []byte) ([]IDiamondLoupeFacet, error) {
	out, err := d.abi.Unpack("facets", data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]IDiamondLoupeFacet)).(*[]IDiamondLoupeFacet), nil
}

// PackFacetAddress packs a call to facetAddress(bytes4).
func (d *Diamond) PackFacetAddress(selector [4]byte) []byte {
	enc, err := d.abi.Pack("facetAddress", selector)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackFacetAddress decodes the facetAddress(bytes4) return data.
func (d *Diamond) UnpackFacetAddress(data []byte) (common.Address, error) {
	out, err := d.abi.Unpack("facetAddress", data)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// PackSupportsInterface packs a call to supportsInterface(bytes4).
func (d *Diamond) PackSupportsInterface(id [4]byte) []byte {
	enc, err := d.abi.Pack("supportsInterface", id)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackSupportsInterface decodes the supportsInterface return data.
func (d *Diamond) UnpackSupportsInterface(data []byte) (bool, error) {
	out, err := d.abi.Unpack("supportsInterface", data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// DiamondCutEvent represents a DiamondCut event raised by the diamond.
type DiamondCutEvent struct {
	FacetCuts []IDiamondCutFacetCut
	Init      common.Address
	Calldata  []byte
	Raw       *types.Log
}

// UnpackDiamondCutEvent decodes a DiamondCut log.
//
// Solidity: event DiamondCut((address,uint8,bytes4[])[] _facetCuts, address _init, bytes _calldata)
func (d *Diamond) UnpackDiamondCutEvent(log *types.Log) (*DiamondCutEvent, error) {
	event := "DiamondCut"
	if len(log.Topics) == 0 || log.Topics[0] != d.abi.Events[event].ID {
		return nil, errors.New("event signature mismatch")
	}
	out, err := d.abi.Events[event].Inputs.Unpack(log.Data)
	if err != nil {
		return nil, err
	}
	return &DiamondCutEvent{
		FacetCuts: *abi.ConvertType(out[0], new([]IDiamondCutFacetCut)).(*[]IDiamondCutFacetCut),
		Init:      *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Calldata:  *abi.ConvertType(out[2], new([]byte)).(*[]byte),
		Raw:       log,
	}, nil
}
