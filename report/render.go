package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"wing-sales-extractor/internal/types"
)

// NewTable returns a rounded-style table writer mirrored to w
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Render prints result as a grid with the localized column labels
func Render(w io.Writer, result types.ResultTable) {
	t := NewTable(w)

	header := table.Row{}
	for _, label := range types.ColumnLabels() {
		header = append(header, label)
	}
	t.AppendHeader(header)

	for i := range result.Rows {
		row := table.Row{}
		for _, v := range result.Rows[i].Values() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.Render()
}
