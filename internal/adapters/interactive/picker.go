package interactive

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// pickerModel is the bubbletea model for choosing facets.
type pickerModel struct {
	title     string
	names     []string
	visible   []int
	cursor    int
	selected  map[int]bool
	filter    string
	filtering bool
	done      bool
	cancelled bool
}

func newPickerModel(title string, names []string) pickerModel {
	m := pickerModel{title: title, names: names, selected: make(map[int]bool)}
	m.applyFilter()
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.filtering = false
		case tea.KeyBackspace:
			if m.filter != "" {
				m.filter = m.filter[:len(m.filter)-1]
				m.applyFilter()
			}
		case tea.KeyRunes:
			m.filter += string(key.Runes)
			m.applyFilter()
		case tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		m.cancelled = true
		return m, tea.Quit
	case "/":
		m.filtering = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case " ":
		if len(m.visible) > 0 {
			i := m.visible[m.cursor]
			m.selected[i] = !m.selected[i]
		}
	case "a":
		for _, i := range m.visible {
			m.selected[i] = true
		}
	case "enter":
		if len(m.picked()) > 0 {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// applyFilter narrows the list to names matching the filter, best match first.
func (m *pickerModel) applyFilter() {
	m.visible = m.visible[:0]
	if m.filter == "" {
		for i := range m.names {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(m.filter, m.names) {
			m.visible = append(m.visible, match.Index)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m pickerModel) picked() []string {
	var out []string
	for i, name := range m.names {
		if m.selected[i] {
			out = append(out, name)
		}
	}
	return out
}

func (m pickerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("%s\n", m.title))
	if m.filtering || m.filter != "" {
		b.WriteString(color.New(color.FgYellow).Sprintf("filter: %s\n", m.filter))
	}
	b.WriteString("\n")

	for row, i := range m.visible {
		cursor := " "
		if m.cursor == row {
			cursor = color.New(color.FgCyan).Sprint("▸")
		}
		checkbox := color.New(color.FgWhite).Sprint("○")
		if m.selected[i] {
			checkbox = color.New(color.FgGreen).Sprint("✓")
		}
		fmt.Fprintf(&b, "%s %s %s\n", cursor, checkbox, m.names[i])
	}

	b.WriteString("\n")
	b.WriteString(color.New(color.FgYellow).Sprint("↑/↓: move  Space: toggle  a: all  /: filter  Enter: confirm  q: quit\n"))
	return b.String()
}

// FacetPicker lets the operator choose which facets an upgrade touches.
type FacetPicker struct {
	cfg *config.RuntimeConfig
}

// NewFacetPicker creates a new facet picker
func NewFacetPicker(cfg *config.RuntimeConfig) *FacetPicker {
	return &FacetPicker{cfg: cfg}
}

// SelectFacets shows a multi-select list and returns the chosen names in
// their original order.
func (p *FacetPicker) SelectFacets(ctx context.Context, names []string) ([]string, error) {
	if p.cfg.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no facets to select")
	}

	program := tea.NewProgram(newPickerModel("Select facets to upgrade", names), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("facet selection failed: %w", err)
	}
	m := final.(pickerModel)
	if m.cancelled || !m.done {
		return nil, fmt.Errorf("selection cancelled")
	}
	return m.picked(), nil
}

var _ usecase.FacetSelector = (*FacetPicker)(nil)
