package commands

import (
	"fmt"
	"io"

	"gymnasier-export/internal/export"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderSummary prints which stop and travel time every school ended up
// with, schools without rows are the ones to look at.
func renderSummary(w io.Writer, result export.Result) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Travel from %s", result.Origin.Name))
	t.AppendHeader(table.Row{"#", "School", "Stop", "Travel time", "Rows"})

	for i, summary := range result.Schools {
		stop := "-"
		if s, ok := summary.Travel.Stop.Get(); ok {
			stop = s.Name
		}
		travelTime := "-"
		if minutes, ok := summary.Travel.Minutes.Get(); ok {
			travelTime = fmt.Sprintf("%d min", minutes)
		}
		t.AppendRow(table.Row{i + 1, summary.School.Name, stop, travelTime, summary.Rows})
	}

	t.AppendFooter(table.Row{"", "", "", "Total", len(result.Rows)})
	t.Render()
}
