package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const EmptyTable = "Aucune donnée"

type Column struct {
	Title string
	Width int
}

// Table is a static grid with an optional highlighted row (Cursor < 0 for none).
type Table struct {
	Columns []Column
	Rows    [][]string
	Cursor  int
}

func (t Table) Render(th Theme) string {
	var b strings.Builder
	head := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		head[i] = cell(th.Header, strings.ToUpper(c.Title), c.Width)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, head...))

	if len(t.Rows) == 0 {
		b.WriteString("\n")
		b.WriteString(th.Muted.Render(EmptyTable))
		return b.String()
	}
	for r, row := range t.Rows {
		st := th.Cell
		if r == t.Cursor {
			st = th.Selected
		}
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cells[i] = cell(st, v, c.Width)
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

func cell(st lipgloss.Style, v string, width int) string {
	if width <= 0 {
		return st.PaddingRight(2).Render(v)
	}
	return st.Width(width).MaxWidth(width).Render(truncate(v, width-1))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
