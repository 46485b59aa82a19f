package protocolinit

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
)

// InitializeRequest is the argument list of the versioned initializer.
type InitializeRequest struct {
	Version            Version
	Addresses          []common.Address
	Calldata           [][]byte
	IsUpgrade          bool
	InitializationData []byte
	InterfacesToRemove []domain.InterfaceID
	InterfacesToAdd    []domain.InterfaceID
}

var handler = bindings.NewProtocolInitializationHandler()

// Pack encodes the request as initialize(bytes32,address[],bytes[],bool,bytes,bytes4[],bytes4[])
// calldata, selector included.
func (r InitializeRequest) Pack() ([]byte, error) {
	data, err := handler.TryPackInitialize(
		r.Version.Bytes32(),
		lo.Ternary(r.Addresses == nil, []common.Address{}, r.Addresses),
		lo.Ternary(r.Calldata == nil, [][]byte{}, r.Calldata),
		r.IsUpgrade,
		lo.Ternary(r.InitializationData == nil, []byte{}, r.InitializationData),
		interfaceIDs(r.InterfacesToRemove),
		interfaceIDs(r.InterfacesToAdd),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack initialize: %w", err)
	}
	return data, nil
}

// UnpackInitializeRequest decodes initialize calldata.
func UnpackInitializeRequest(data []byte) (*InitializeRequest, error) {
	in, err := handler.UnpackInitializeInput(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack initialize: %w", err)
	}
	return &InitializeRequest{
		Version:            Version(in.Version),
		Addresses:          in.Addresses,
		Calldata:           in.Calldata,
		IsUpgrade:          in.IsUpgrade,
		InitializationData: in.InitializationData,
		InterfacesToRemove: lo.Map(in.InterfacesToRemove, func(id [4]byte, _ int) domain.InterfaceID { return domain.InterfaceID(id) }),
		InterfacesToAdd:    lo.Map(in.InterfacesToAdd, func(id [4]byte, _ int) domain.InterfaceID { return domain.InterfaceID(id) }),
	}, nil
}

// InitializeSelector is the selector of the versioned initializer.
func InitializeSelector() domain.Selector {
	return domain.Selector(handler.InitializeSelector())
}

func interfaceIDs(ids []domain.InterfaceID) [][4]byte {
	out := make([][4]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, [4]byte(id))
	}
	return out
}
