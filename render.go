package main

import (
	"strings"
	"unicode/utf8"

	"rowed/internal/gridlib"
)

// displayText maps a cell value to its display form: NULL and the empty
// string get distinct markers so they can be told apart in output.
func displayText(v any) string {
	if v == nil {
		return gridlib.NullDisplay
	}
	text := gridlib.CellText(v)
	if text == "" {
		return gridlib.EmptyDisplay
	}
	return text
}

// renderResult formats a query result as a markdown table with aligned
// columns. Modified cells are marked with a trailing asterisk.
func renderResult(result gridlib.QueryResult, ledger *gridlib.Ledger) string {
	if len(result.Columns) == 0 {
		return ""
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}

	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for c := range result.Columns {
			text := ""
			if c < len(row) {
				text = displayText(row[c])
			}
			if ledger != nil {
				if _, ok := ledger.Get(gridlib.CellKey{Row: r, Col: c}); ok {
					text += "*"
				}
			}
			cells[r][c] = text
			if w := utf8.RuneCountInString(text); w > widths[c] {
				widths[c] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(fields []string) {
		b.WriteString("|")
		for i, field := range fields {
			b.WriteString(" ")
			b.WriteString(field)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(field)))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(result.Columns)
	b.WriteString("|")
	for i := range result.Columns {
		b.WriteString(strings.Repeat("-", widths[i]+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range cells {
		writeRow(row)
	}
	return b.String()
}
