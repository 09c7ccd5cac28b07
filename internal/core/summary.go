package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseLine is an expense together with its current position.
type ExpenseLine struct {
	Index       int
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
}

// Summary is the read model behind the index page and the CLI summary.
type Summary struct {
	Budget     decimal.Decimal
	Expenses   []ExpenseLine
	TotalSpent decimal.Decimal
	Remaining  decimal.Decimal
}

// Summarize computes totals for a document.
func Summarize(d Document) Summary {
	lines := make([]ExpenseLine, len(d.Expenses))
	for i, e := range d.Expenses {
		lines[i] = ExpenseLine{Index: i, ID: e.ID, Description: e.Description, Amount: e.Amount}
	}
	return Summary{
		Budget:     d.Budget,
		Expenses:   lines,
		TotalSpent: d.TotalSpent(),
		Remaining:  d.Remaining(),
	}
}
