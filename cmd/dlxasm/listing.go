package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bassosimone/dlxasm/pkg/asm"
	"github.com/bassosimone/dlxasm/pkg/word"
)

// renderListing renders the rows of result with their decoded fields
// and the source line that produced them.
func renderListing(result *asm.Result) string {
	tw := table.NewWriter()
	tw.SetTitle(result.File)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Address", "Value", "Fields", "Line", "Source"})
	for _, row := range result.Rows {
		fields := ""
		if row.IsWord {
			fields = word.Decode(row.Word).String()
		}
		var lineno int
		var source string
		if row.Source != nil {
			lineno = row.Source.Lineno
			source = row.Source.String()
		}
		tw.AppendRow(table.Row{asm.FormatAddress(row.Address), row.Value(), fields, lineno, source})
	}
	tw.AppendFooter(table.Row{"", "", "", "labels", fmt.Sprintf("%d", len(result.Symbols))})
	return tw.Render()
}
