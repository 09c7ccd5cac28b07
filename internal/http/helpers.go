package http

import (
	"strings"

	"budget/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type expenseRow struct {
	Index       int
	ID          string
	Description string
	Amount      string
	AmountRaw   string
}

type indexPage struct {
	Locale     string
	Budget     string
	BudgetRaw  string
	TotalSpent string
	Remaining  string
	Overspent  bool
	Expenses   []expenseRow
}

// newIndexPage formats a summary for the index template.
func newIndexPage(s core.Summary, f core.AmountFormatter, locale string) indexPage {
	page := indexPage{
		Locale:     locale,
		Budget:     f.Format(s.Budget),
		BudgetRaw:  s.Budget.String(),
		TotalSpent: f.Format(s.TotalSpent),
		Remaining:  f.Format(s.Remaining),
		Overspent:  s.Remaining.IsNegative(),
		Expenses:   make([]expenseRow, 0, len(s.Expenses)),
	}
	for _, e := range s.Expenses {
		page.Expenses = append(page.Expenses, expenseRow{
			Index:       e.Index,
			ID:          e.ID.String(),
			Description: e.Description,
			Amount:      f.Format(e.Amount),
			AmountRaw:   e.Amount.String(),
		})
	}
	return page
}
