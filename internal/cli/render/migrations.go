package render

import (
	"fmt"
	"io"
)

// RenderMigrationList prints the versions that have a plan file.
func RenderMigrationList(out io.Writer, versions []string, json bool) error {
	if json {
		if versions == nil {
			versions = []string{}
		}
		return RenderJSON(out, versions)
	}
	if len(versions) == 0 {
		fmt.Fprintln(out, "No migration plans found")
		return nil
	}
	sectionHeaderStyle.Fprintln(out, "Migration plans:")
	for _, v := range versions {
		fmt.Fprintf(out, "  %s\n", v)
	}
	return nil
}
