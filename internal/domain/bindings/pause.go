package bindings

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
)

// PauseHandlerMetaData is the region pause surface routed through the diamond.
var PauseHandlerMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"pause","inputs":[{"name":"_regions","type":"uint8[]","internalType":"enum BosonTypes.PausableRegion[]"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"unpause","inputs":[{"name":"_regions","type":"uint8[]","internalType":"enum BosonTypes.PausableRegion[]"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"getPausedRegions","inputs":[],"outputs":[{"name":"regions","type":"uint8[]","internalType":"enum BosonTypes.PausableRegion[]"}],"stateMutability":"view"},
{"type":"error","name":"RegionPaused","inputs":[{"name":"region","type":"uint8","internalType":"enum BosonTypes.PausableRegion"}]},
{"type":"error","name":"NotPaused","inputs":[]}
]`,
	ID: "PauseHandler",
}

// PauseHandler binds the protocol pause handler.
type PauseHandler struct {
	abi abi.ABI
}

// NewPauseHandler creates a new instance of PauseHandler.
func NewPauseHandler() *PauseHandler {
	parsed, err := PauseHandlerMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &PauseHandler{abi: *parsed}
}

// ABI exposes the parsed ABI.
func (p *PauseHandler) ABI() *abi.ABI {
	return &p.abi
}

// PackPause packs a call to pause.
//
// Solidity: function pause(uint8[] _regions)
func (p *PauseHandler) PackPause(regions []uint8) []byte {
	enc, err := p.abi.Pack("pause", regions)
	if err != nil {
		panic(err)
	}
	return enc
}

// PackUnpause packs a call to unpause.
//
// Solidity: function unpause(uint8[] _regions)
func (p *PauseHandler) PackUnpause(regions []uint8) []byte {
	enc, err := p.abi.Pack("unpause", regions)
	if err != nil {
		panic(err)
	}
	return enc
}

// PackGetPausedRegions packs a call to getPausedRegions.
func (p *PauseHandler) PackGetPausedRegions() []byte {
	enc, err := p.abi.Pack("getPausedRegions")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackGetPausedRegions decodes the getPausedRegions return data.
func (p *PauseHandler) UnpackGetPausedRegions(data []byte) ([]uint8, error) {
	out, err := p.abi.Unpack("getPausedRegions", data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]uint8)).(*[]uint8), nil
}
