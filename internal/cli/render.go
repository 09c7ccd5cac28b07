package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budget/internal/core"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	goodStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	badStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// Table is a bordered text table. The first column is left aligned, the
// rest are right aligned. A row holding the single cell "---" renders as a
// separator.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	line(t.Headers, headerStyle)
	rule("├", "┼", "┤")
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderSummary renders the expense table followed by the totals.
func RenderSummary(s core.Summary, f core.AmountFormatter) string {
	var b strings.Builder
	b.WriteString(RenderTitle("BUDGET"))
	b.WriteString("\n\n")

	if len(s.Expenses) == 0 {
		b.WriteString("  No expenses recorded.\n\n")
	} else {
		t := Table{Headers: []string{"Description", "#", "Amount", "ID"}}
		for _, e := range s.Expenses {
			t.Rows = append(t.Rows, []string{e.Description, fmt.Sprint(e.Index), f.Format(e.Amount), e.ID.String()[:8]})
		}
		b.WriteString(RenderTable(t))
		b.WriteString("\n")
	}

	remaining := goodStyle
	if s.Remaining.IsNegative() {
		remaining = badStyle
	}
	totals := Table{
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Budget", f.Format(s.Budget)},
			{"Total spent", f.Format(s.TotalSpent)},
		},
	}
	b.WriteString(RenderTable(totals))
	b.WriteString(fmt.Sprintf("  Remaining: %s\n", remaining.Render(f.Format(s.Remaining))))
	return b.String()
}
