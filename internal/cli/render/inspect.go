package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// InspectRenderer renders a facet's selectors and interface id
type InspectRenderer struct {
	out  io.Writer
	json bool
}

// NewInspectRenderer creates a new inspect renderer
func NewInspectRenderer(out io.Writer, json bool) *InspectRenderer {
	return &InspectRenderer{out: out, json: json}
}

type inspectView struct {
	Name        string            `json:"name"`
	Interface   string            `json:"interface"`
	InterfaceID string            `json:"interfaceId"`
	Initializer string            `json:"initializer,omitempty"`
	Selectors   map[string]string `json:"selectors"`
	Address     string            `json:"address,omitempty"`
}

func (r *InspectRenderer) Render(result *usecase.InspectResult) error {
	if r.json {
		v := inspectView{
			Name:        result.Name,
			Interface:   result.Interface,
			InterfaceID: result.InterfaceID.String(),
			Initializer: result.Initializer,
			Selectors:   make(map[string]string, len(result.Selectors)),
		}
		for _, s := range result.Selectors {
			v.Selectors[s.Signature] = s.Selector.String()
		}
		if result.Recorded != nil {
			v.Address = result.Recorded.Address.Hex()
		}
		return RenderJSON(r.out, v)
	}

	sectionHeaderStyle.Fprintln(r.out, result.Name)
	fmt.Fprintf(r.out, "  Interface:   %s (%s)\n", result.Interface, result.InterfaceID)
	if result.Initializer != "" {
		fmt.Fprintf(r.out, "  Initializer: %s\n", result.Initializer)
	}
	if result.Recorded != nil {
		fmt.Fprintf(r.out, "  Deployed at: %s\n", formatAddress(result.Recorded.Address))
		if result.Recorded.InterfaceID != result.InterfaceID {
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("address book records interface %s", result.Recorded.InterfaceID)))
		}
	} else {
		fmt.Fprintf(r.out, "  Deployed at: %s\n", faintStyle.Sprint("not recorded"))
	}

	section(r.out, fmt.Sprintf("Selectors (%d)", len(result.Selectors)))
	t := newTable(r.out)
	t.AppendHeader(table.Row{"Selector", "Signature"})
	for _, s := range result.Selectors {
		t.AppendRow(table.Row{s.Selector.String(), s.Signature})
	}
	t.Render()
	return nil
}

var _ Renderer[*usecase.InspectResult] = (*InspectRenderer)(nil)
