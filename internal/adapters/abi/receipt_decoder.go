package abi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// ReceiptDecoder turns the logs of a mutation into readable events. Logs
// from unknown events are skipped.
type ReceiptDecoder struct {
	diamond *bindings.Diamond
	init    *bindings.ProtocolInitializationHandler
	access  *abi.ABI
}

// NewReceiptDecoder creates a decoder for the diamond's events.
func NewReceiptDecoder() *ReceiptDecoder {
	return &ReceiptDecoder{
		diamond: bindings.NewDiamond(),
		init:    bindings.NewProtocolInitializationHandler(),
		access:  bindings.NewAccessController().ABI(),
	}
}

// Decode returns one entry per recognised log, in log order.
func (d *ReceiptDecoder) Decode(logs []*types.Log) []models.ReceiptEvent {
	var events []models.ReceiptEvent
	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}
		if ev, ok := d.decode(log); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (d *ReceiptDecoder) decode(log *types.Log) (models.ReceiptEvent, bool) {
	ev := models.ReceiptEvent{Emitter: log.Address}
	switch log.Topics[0] {
	case d.diamond.ABI().Events["DiamondCut"].ID:
		cut, err := d.diamond.UnpackDiamondCutEvent(log)
		if err != nil {
			return ev, false
		}
		ev.Name, ev.Summary = "DiamondCut", summarizeCut(cut)
	case d.init.ABI().Events["ProtocolInitialized"].ID:
		initialized, err := d.init.UnpackProtocolInitializedEvent(log)
		if err != nil {
			return ev, false
		}
		ev.Name = "ProtocolInitialized"
		ev.Summary = "version " + strings.TrimRight(initialized.Version, "\x00")
	case d.access.Events["RoleGranted"].ID, d.access.Events["RoleRevoked"].ID:
		if len(log.Topics) < 3 {
			return ev, false
		}
		ev.Name = "RoleGranted"
		if log.Topics[0] == d.access.Events["RoleRevoked"].ID {
			ev.Name = "RoleRevoked"
		}
		role := domain.Role(log.Topics[1])
		account := common.BytesToAddress(log.Topics[2].Bytes())
		ev.Summary = fmt.Sprintf("%s for %s", role.Name(), account.Hex())
	default:
		return ev, false
	}
	return ev, true
}

func summarizeCut(cut *bindings.DiamondCutEvent) string {
	parts := lo.Map(cut.FacetCuts, func(c bindings.IDiamondCutFacetCut, _ int) string {
		return fmt.Sprintf("%s %d selector(s) on %s", domain.FacetCutAction(c.Action), len(c.FunctionSelectors), c.FacetAddress.Hex())
	})
	if cut.Init != (common.Address{}) {
		parts = append(parts, fmt.Sprintf("init %s (%d bytes)", cut.Init.Hex(), len(cut.Calldata)))
	}
	return strings.Join(parts, "; ")
}
