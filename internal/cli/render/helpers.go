package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	addressStyle       = color.New(color.FgWhite)
	faintStyle         = color.New(color.Faint)
	addStyle           = color.New(color.FgGreen)
	replaceStyle       = color.New(color.FgYellow)
	removeStyle        = color.New(color.FgRed)
	titleCaser         = cases.Title(language.English)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon. Migration
// failures name the stage they stopped in.
func FormatError(err error) string {
	var migErr *domain.MigrationError
	if errors.As(err, &migErr) {
		return color.New(color.FgRed).Sprintf("❌ %s stage failed while migrating to %s: %v",
			titleCaser.String(string(migErr.Stage)), migErr.Version, migErr.Err)
	}
	msg := err.Error()
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// RenderJSON writes v as indented JSON
func RenderJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func section(out io.Writer, title string) {
	fmt.Fprintln(out)
	sectionHeaderStyle.Fprintln(out, title)
}

func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return faintStyle.Sprint("-")
	}
	return addressStyle.Sprint(addr.Hex())
}

// newTable returns a borderless go-pretty table in the house style
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Format.Header = text.FormatUpper
	t.Style().Box.PaddingLeft = "  "
	t.Style().Box.PaddingRight = "  "
	return t
}
