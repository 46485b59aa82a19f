package bindings

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DecodeRevert names the custom error or reason string carried by revert data.
// It returns ok=false when the data matches nothing known.
func DecodeRevert(data []byte) (name string, ok bool) {
	if len(data) < 4 {
		return "", false
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, true
	}
	var id [4]byte
	copy(id[:], data[:4])
	for _, md := range []*abi.ABI{
		NewProtocolInitializationHandler().ABI(),
		NewDiamond().ABI(),
		NewPauseHandler().ABI(),
	} {
		if e, err := md.ErrorByID(id); err == nil {
			return e.Name, true
		}
	}
	return fmt.Sprintf("0x%x", data[:4]), false
}
