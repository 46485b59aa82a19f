package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

func init() {
	color.NoColor = true
}

var (
	offerFacet = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	txHash     = common.HexToHash("0x01")
)

func sampleResult() *models.MigrationResult {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.MigrationResult{
		RunID:       "run-1",
		FromVersion: "2.3.0",
		ToVersion:   "2.4.0",
		Facets: []models.FacetChange{
			{
				Name:       "OfferHandlerFacet",
				NewAddress: offerFacet,
				Diff: domain.FacetDiff{
					ToAdd:     domain.NewSelectorSet(domain.MustParseSelector("0x11111111"), domain.MustParseSelector("0x22222222")),
					ToReplace: domain.NewSelectorSet(domain.MustParseSelector("0x33333333")),
				},
			},
			{Name: "OldFacet", Removed: true, Diff: domain.FacetDiff{ToRemove: domain.NewSelectorSet(domain.MustParseSelector("0x44444444"))}},
		},
		Cuts: []*models.Receipt{{
			TxHash:      txHash,
			BlockNumber: 12,
			GasUsed:     21000,
			Events:      []models.ReceiptEvent{{Name: "DiamondCut", Summary: "Add 2 selector(s)"}},
		}},
		Backfill: []models.BackfillBatch{{Index: 0, Items: 3}},
		Postconditions: []models.PostconditionResult{
			{Selector: domain.MustParseSelector("0x44444444"), Expected: "absent", Actual: offerFacet},
		},
		Paused:     []domain.PauseRegion{domain.PauseOffers},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
}

func TestMigrationRenderer_Text(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewMigrationRenderer(&out, false).Render(sampleResult()))

	text := out.String()
	assert.Contains(t, text, "protocol migrated 2.3.0 → 2.4.0")
	assert.Contains(t, text, "run run-1, 1.5s")
	assert.Contains(t, text, "OfferHandlerFacet")
	assert.Contains(t, text, "+2 ~1")
	assert.Contains(t, text, "removed")
	assert.Contains(t, text, txHash.Hex())
	assert.Contains(t, text, "DiamondCut Add 2 selector(s)")
	assert.Contains(t, text, "batch 1: 3 item(s)")
	assert.Contains(t, text, "Paused and resumed: Offers")
	assert.Contains(t, text, "selector 0x44444444 expected absent")
}

func TestMigrationRenderer_Headlines(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.MigrationResult)
		want   string
	}{
		{"migration", func(r *models.MigrationResult) {}, "protocol migrated 2.3.0 → 2.4.0"},
		{"dry run", func(r *models.MigrationResult) { r.DryRun = true }, "Dry run: protocol migrated"},
		{"simulated upgrade", func(r *models.MigrationResult) {
			r.Simulated = true
			r.FromVersion = ""
		}, "Simulated: facets upgraded at protocol 2.4.0"},
		{"bare upgrade", func(r *models.MigrationResult) {
			r.FromVersion, r.ToVersion = "", ""
		}, "facets upgraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sampleResult()
			tt.mutate(result)
			var out bytes.Buffer
			require.NoError(t, NewMigrationRenderer(&out, false).Render(result))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestMigrationRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewMigrationRenderer(&out, true).Render(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["RunID"])
	assert.Equal(t, "2.4.0", decoded["ToVersion"])
	assert.Len(t, decoded["Facets"], 2)
}

func TestRolesRenderer(t *testing.T) {
	result := &usecase.ManageRolesResult{
		Action:  usecase.RoleGrant,
		Account: offerFacet,
		Roles: []usecase.RoleStatus{
			{Role: domain.RolePauser, Held: true, Changed: true, Receipt: &models.Receipt{TxHash: txHash}},
			{Role: domain.RoleUpgrader, Held: true},
		},
	}

	var out bytes.Buffer
	require.NoError(t, NewRolesRenderer(&out, false).Render(result))
	assert.Contains(t, out.String(), "Grant roles for "+offerFacet.Hex())
	assert.Contains(t, out.String(), "PAUSER")
	assert.Contains(t, out.String(), txHash.Hex())

	out.Reset()
	require.NoError(t, NewRolesRenderer(&out, true).Render(result))
	var decoded struct {
		Action string     `json:"action"`
		Roles  []roleView `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "grant", decoded.Action)
	require.Len(t, decoded.Roles, 2)
	assert.Equal(t, "PAUSER", decoded.Roles[0].Role)
	assert.Equal(t, txHash.Hex(), decoded.Roles[0].TxHash)
	assert.Empty(t, decoded.Roles[1].TxHash)
}

func TestInspectRenderer(t *testing.T) {
	result := &usecase.InspectResult{
		Name:        "OfferHandlerFacet",
		Interface:   "IOfferHandler",
		InterfaceID: domain.InterfaceID(domain.MustParseSelector("0x12345678")),
		Initializer: "initialize()",
		Selectors:   []usecase.SelectorInfo{{Selector: domain.MustParseSelector("0x11111111"), Signature: "createOffer(uint256)"}},
		Recorded:    &models.ContractEntry{Name: "OfferHandlerFacet", Address: offerFacet},
	}

	var out bytes.Buffer
	require.NoError(t, NewInspectRenderer(&out, false).Render(result))
	assert.Contains(t, out.String(), "IOfferHandler (0x12345678)")
	assert.Contains(t, out.String(), "createOffer(uint256)")
	assert.Contains(t, out.String(), "address book records interface empty")

	out.Reset()
	require.NoError(t, NewInspectRenderer(&out, true).Render(result))
	var v inspectView
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, "0x12345678", v.InterfaceID)
	assert.Equal(t, "0x11111111", v.Selectors["createOffer(uint256)"])
	assert.Equal(t, offerFacet.Hex(), v.Address)
}

func TestRenderMigrationList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderMigrationList(&out, nil, false))
	assert.Equal(t, "No migration plans found\n", out.String())

	out.Reset()
	require.NoError(t, RenderMigrationList(&out, nil, true))
	assert.JSONEq(t, "[]", out.String())

	out.Reset()
	require.NoError(t, RenderMigrationList(&out, []string{"2.2.0", "2.4.0"}, false))
	assert.Contains(t, out.String(), "  2.4.0\n")
}

func TestFormatError(t *testing.T) {
	err := &domain.MigrationError{Version: "2.4.0", Stage: domain.StageCut, Err: errors.New("reverted")}
	assert.Equal(t, "❌ Cut stage failed while migrating to 2.4.0: reverted", FormatError(err))
	assert.Equal(t, "❌ No network configured", FormatError(errors.New("no network configured")))
}
