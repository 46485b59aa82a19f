package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// MigrationRenderer renders migration and upgrade results
type MigrationRenderer struct {
	out  io.Writer
	json bool
}

// NewMigrationRenderer creates a new migration renderer
func NewMigrationRenderer(out io.Writer, json bool) *MigrationRenderer {
	return &MigrationRenderer{out: out, json: json}
}

// Render prints the facets touched, the cuts submitted and any warnings.
func (r *MigrationRenderer) Render(result *models.MigrationResult) error {
	if r.json {
		return RenderJSON(r.out, result)
	}

	fmt.Fprintln(r.out, FormatSuccess(r.headline(result)))
	fmt.Fprintln(r.out, faintStyle.Sprintf("run %s, %s", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)))

	if len(result.Facets) > 0 {
		section(r.out, "Facets")
		r.renderFacets(result.Facets)
	}
	if len(result.Cuts) > 0 {
		section(r.out, "Transactions")
		for _, receipt := range result.Cuts {
			r.renderReceipt(receipt)
		}
	}
	if len(result.Backfill) > 0 {
		section(r.out, "Backfill")
		for _, b := range result.Backfill {
			fmt.Fprintf(r.out, "  batch %d: %d item(s)", b.Index+1, b.Items)
			if b.Receipt != nil {
				fmt.Fprintf(r.out, " %s", faintStyle.Sprint(b.Receipt.TxHash.Hex()))
			}
			fmt.Fprintln(r.out)
		}
	}
	if len(result.Orphaned) > 0 {
		section(r.out, "Reassigned selectors")
		for _, o := range result.Orphaned {
			fmt.Fprintf(r.out, "  %s: %s → %s\n", o.Selector, o.From, o.TakenBy)
		}
	}
	if len(result.InterfacesRemoved)+len(result.InterfacesAdded) > 0 {
		section(r.out, "Interfaces")
		for _, id := range result.InterfacesRemoved {
			fmt.Fprintf(r.out, "  %s %s\n", removeStyle.Sprint("-"), id)
		}
		for _, id := range result.InterfacesAdded {
			fmt.Fprintf(r.out, "  %s %s\n", addStyle.Sprint("+"), id)
		}
	}
	if len(result.Paused) > 0 {
		regions := lo.Map(result.Paused, func(p domain.PauseRegion, _ int) string { return p.String() })
		fmt.Fprintln(r.out)
		fmt.Fprintf(r.out, "Paused and resumed: %s\n", strings.Join(regions, ", "))
	}

	failures := result.PostconditionFailures()
	if len(failures) > 0 {
		fmt.Fprintln(r.out)
		for _, p := range failures {
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("selector %s expected %s, routed to %s", p.Selector, p.Expected, p.Actual.Hex())))
		}
	}
	return nil
}

func (r *MigrationRenderer) headline(result *models.MigrationResult) string {
	var prefix string
	switch {
	case result.DryRun:
		prefix = "Dry run: "
	case result.Simulated:
		prefix = "Simulated: "
	}
	switch {
	case result.FromVersion != "" && result.FromVersion != result.ToVersion:
		return fmt.Sprintf("%sprotocol migrated %s → %s", prefix, result.FromVersion, result.ToVersion)
	case result.ToVersion != "":
		return fmt.Sprintf("%sfacets upgraded at protocol %s", prefix, result.ToVersion)
	default:
		return fmt.Sprintf("%sfacets upgraded", prefix)
	}
}

func (r *MigrationRenderer) renderFacets(changes []models.FacetChange) {
	t := newTable(r.out)
	t.AppendHeader(table.Row{"Facet", "Address", "Selectors", "Interface"})
	for _, c := range changes {
		address := formatAddress(c.NewAddress)
		if c.Removed {
			address = removeStyle.Sprint("removed")
		}
		t.AppendRow(table.Row{c.Name, address, formatDiff(c), formatInterface(c)})
	}
	t.Render()
}

func formatDiff(c models.FacetChange) string {
	var parts []string
	if n := c.Diff.ToAdd.Len(); n > 0 {
		parts = append(parts, addStyle.Sprintf("+%d", n))
	}
	if n := c.Diff.ToReplace.Len(); n > 0 {
		parts = append(parts, replaceStyle.Sprintf("~%d", n))
	}
	if n := c.Diff.ToRemove.Len(); n > 0 {
		parts = append(parts, removeStyle.Sprintf("-%d", n))
	}
	if n := c.Skipped.Len(); n > 0 {
		parts = append(parts, faintStyle.Sprintf("skip %d", n))
	}
	if len(parts) == 0 {
		return faintStyle.Sprint("unchanged")
	}
	return strings.Join(parts, " ")
}

func formatInterface(c models.FacetChange) string {
	if c.OldInterfaceID == c.NewInterfaceID || c.Removed {
		return c.OldInterfaceID.String()
	}
	return fmt.Sprintf("%s → %s", c.OldInterfaceID, c.NewInterfaceID)
}

func (r *MigrationRenderer) renderReceipt(receipt *models.Receipt) {
	fmt.Fprintf(r.out, "  %s %s\n", receipt.TxHash.Hex(),
		faintStyle.Sprintf("block %d, gas %d", receipt.BlockNumber, receipt.GasUsed))
	for _, ev := range receipt.Events {
		fmt.Fprintf(r.out, "    %s %s\n", ev.Name, faintStyle.Sprint(ev.Summary))
	}
}

var _ Renderer[*models.MigrationResult] = (*MigrationRenderer)(nil)
