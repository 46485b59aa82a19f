package abi

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
)

func TestReceiptDecoder(t *testing.T) {
	d := NewReceiptDecoder()
	diamond := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	facet := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	cutEvent := d.diamond.ABI().Events["DiamondCut"]
	cutData, err := cutEvent.Inputs.Pack(
		[]bindings.IDiamondCutFacetCut{{FacetAddress: facet, Action: uint8(domain.CutAdd), FunctionSelectors: [][4]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}}},
		common.Address{},
		[]byte{},
	)
	require.NoError(t, err)

	initEvent := d.init.ABI().Events["ProtocolInitialized"]
	initData, err := initEvent.Inputs.Pack("2.4.0")
	require.NoError(t, err)

	upgrader := domain.NewRole("UPGRADER")
	logs := []*types.Log{
		{Address: diamond, Topics: []common.Hash{cutEvent.ID}, Data: cutData},
		{Address: diamond, Topics: []common.Hash{common.HexToHash("0x01")}},
		{Address: diamond, Topics: []common.Hash{initEvent.ID}, Data: initData},
		{Address: diamond, Topics: []common.Hash{d.access.Events["RoleGranted"].ID, common.Hash(upgrader), common.BytesToHash(account.Bytes()), {}}},
		nil,
	}

	events := d.Decode(logs)
	require.Len(t, events, 3)
	assert.Equal(t, "DiamondCut", events[0].Name)
	assert.Equal(t, diamond, events[0].Emitter)
	assert.Contains(t, events[0].Summary, "2 selector(s) on "+facet.Hex())
	assert.Equal(t, "ProtocolInitialized", events[1].Name)
	assert.Equal(t, "version 2.4.0", events[1].Summary)
	assert.Equal(t, "RoleGranted", events[2].Name)
	assert.Equal(t, "UPGRADER for "+account.Hex(), events[2].Summary)
}
