package domain

import (
	"fmt"
	"strings"
)

// FacetCutAction mirrors IDiamondCut.FacetCutAction.
type FacetCutAction uint8

const (
	CutAdd FacetCutAction = iota
	CutReplace
	CutRemove
)

func (a FacetCutAction) String() string {
	switch a {
	case CutAdd:
		return "Add"
	case CutReplace:
		return "Replace"
	case CutRemove:
		return "Remove"
	default:
		return fmt.Sprintf("FacetCutAction(%d)", uint8(a))
	}
}

// ParseFacetCutAction accepts the action names case-insensitively.
func ParseFacetCutAction(value string) (FacetCutAction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "add":
		return CutAdd, nil
	case "replace":
		return CutReplace, nil
	case "remove":
		return CutRemove, nil
	}
	return 0, fmt.Errorf("unknown facet cut action %q", value)
}
