package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// InspectFacet reports the selectors and interface id of a compiled facet.
// It never touches the network.
type InspectFacet struct {
	cfg       *config.RuntimeConfig
	artifacts ArtifactReader
	snapshots SnapshotRepository
}

// NewInspectFacet creates a new InspectFacet use case
func NewInspectFacet(cfg *config.RuntimeConfig, artifacts ArtifactReader, snapshots SnapshotRepository) *InspectFacet {
	return &InspectFacet{cfg: cfg, artifacts: artifacts, snapshots: snapshots}
}

// InspectParams contains parameters for inspecting a facet
type InspectParams struct {
	Name string
}

// SelectorInfo pairs a selector with its method signature.
type SelectorInfo struct {
	Selector  domain.Selector
	Signature string
}

// InspectResult contains the result of inspecting a facet
type InspectResult struct {
	Name        string
	Interface   string
	InterfaceID domain.InterfaceID
	Selectors   []SelectorInfo
	Initializer string // signature of initialize, empty when the facet has none

	// Recorded is the address book entry, nil when none was found.
	Recorded *models.ContractEntry
}

// Run inspects one facet of the current build.
func (uc *InspectFacet) Run(ctx context.Context, params InspectParams) (*InspectResult, error) {
	modules, err := uc.artifacts.LoadCompiled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load compiled facets: %w", err)
	}
	module, err := modules.Module(params.Name)
	if err != nil {
		return nil, err
	}
	id, err := modules.InterfaceIDOf(modules.InterfaceGraph(uc.cfg.FacetConfig.InterfaceMarkers...), module)
	if err != nil {
		return nil, fmt.Errorf("failed to compute interface of %s: %w", params.Name, err)
	}

	result := &InspectResult{Name: module.Name, Interface: module.Interface, InterfaceID: id}
	for _, method := range module.ABI.Methods {
		if method.RawName == domain.InitializerMethod {
			result.Initializer = method.Sig
			continue
		}
		var sel domain.Selector
		copy(sel[:], method.ID)
		result.Selectors = append(result.Selectors, SelectorInfo{Selector: sel, Signature: method.Sig})
	}
	sort.Slice(result.Selectors, func(i, j int) bool {
		return result.Selectors[i].Signature < result.Selectors[j].Signature
	})

	if key, err := snapshotKey(uc.cfg); err == nil {
		if snapshot, err := uc.snapshots.Load(ctx, key); err == nil {
			if entry, err := snapshot.Get(params.Name); err == nil {
				result.Recorded = entry
			}
		}
	}
	return result, nil
}
