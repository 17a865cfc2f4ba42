package commands

import (
	"io"
	"printsheet/internal/email"
	"printsheet/internal/sheets"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const previewCellWidth = 40

// renderPreview prints the grid that would be written to the spreadsheet.
func renderPreview(out io.Writer, rows []email.Row) {
	grid := sheets.BuildGrid(rows)
	if len(grid) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row(grid[0]))
	for _, row := range grid[1:] {
		t.AppendRow(table.Row(row))
	}

	configs := make([]table.ColumnConfig, len(grid[0]))
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			WidthMax:         previewCellWidth,
			WidthMaxEnforcer: text.Trim,
		}
	}
	t.SetColumnConfigs(configs)
	t.Render()
}
