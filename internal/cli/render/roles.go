package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// RolesRenderer renders role grant, revoke and check results
type RolesRenderer struct {
	out  io.Writer
	json bool
}

// NewRolesRenderer creates a new roles renderer
func NewRolesRenderer(out io.Writer, json bool) *RolesRenderer {
	return &RolesRenderer{out: out, json: json}
}

type roleView struct {
	Role    string `json:"role"`
	ID      string `json:"id"`
	Held    bool   `json:"held"`
	Changed bool   `json:"changed"`
	TxHash  string `json:"txHash,omitempty"`
}

// Render prints one row per role.
func (r *RolesRenderer) Render(result *usecase.ManageRolesResult) error {
	views := make([]roleView, 0, len(result.Roles))
	for _, s := range result.Roles {
		v := roleView{Role: s.Role.Name(), ID: common.Hash(s.Role).Hex(), Held: s.Held, Changed: s.Changed}
		if s.Receipt != nil {
			v.TxHash = s.Receipt.TxHash.Hex()
		}
		views = append(views, v)
	}

	if r.json {
		return RenderJSON(r.out, map[string]any{
			"action":  result.Action,
			"account": result.Account.Hex(),
			"sender":  result.Sender.Hex(),
			"roles":   views,
		})
	}

	fmt.Fprintf(r.out, "%s roles for %s\n", titleCaser.String(string(result.Action)), formatAddress(result.Account))
	t := newTable(r.out)
	t.AppendHeader(table.Row{"Role", "Held", "Transaction"})
	for _, v := range views {
		held := color.New(color.FgRed).Sprint("no")
		if v.Held {
			held = color.New(color.FgGreen).Sprint("yes")
		}
		tx := faintStyle.Sprint("-")
		if v.Changed {
			tx = v.TxHash
		}
		t.AppendRow(table.Row{v.Role, held, tx})
	}
	t.Render()
	return nil
}

var _ Renderer[*usecase.ManageRolesResult] = (*RolesRenderer)(nil)
