package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// Expense is one recorded outflow. ID is stable across edits; the
	// position inside Document.Expenses is not.
	Expense struct {
		ID          uuid.UUID
		Description string
		Amount      decimal.Decimal
	}

	// Document is the unit of persistence: read and rewritten wholesale.
	Document struct {
		Budget   decimal.Decimal
		Expenses []Expense
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingField  = errors.New("missing form field")
)

// NewDocument returns the empty budget used when nothing is persisted yet.
func NewDocument() Document {
	return Document{Budget: decimal.Zero, Expenses: []Expense{}}
}

// NewExpense builds an expense with a freshly generated ID.
func NewExpense(description string, amount decimal.Decimal) Expense {
	return Expense{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
	}
}

// Clone returns a deep copy so callers can mutate without sharing the slice.
func (d Document) Clone() Document {
	out := Document{Budget: d.Budget, Expenses: make([]Expense, len(d.Expenses))}
	copy(out.Expenses, d.Expenses)
	return out
}

// TotalSpent sums all expense amounts.
func (d Document) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, e := range d.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Remaining is budget minus total spent. It is never stored.
func (d Document) Remaining() decimal.Decimal {
	return d.Budget.Sub(d.TotalSpent())
}

// Locate resolves ref to a position in Expenses. A ref is either an
// expense UUID or a decimal position; anything else resolves to nothing.
func (d Document) Locate(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		for i, e := range d.Expenses {
			if e.ID == id {
				return i, true
			}
		}
		return -1, false
	}
	i, err := strconv.Atoi(ref)
	if err != nil || i < 0 || i >= len(d.Expenses) {
		return -1, false
	}
	return i, true
}

// Append adds a new expense at the end and returns it.
func (d *Document) Append(description string, amount decimal.Decimal) Expense {
	e := NewExpense(description, amount)
	d.Expenses = append(d.Expenses, e)
	return e
}

// Replace overwrites description and amount at position i, keeping the ID.
func (d *Document) Replace(i int, description string, amount decimal.Decimal) Expense {
	d.Expenses[i].Description = description
	d.Expenses[i].Amount = amount
	return d.Expenses[i]
}

// Remove drops the expense at position i and returns it.
func (d *Document) Remove(i int) Expense {
	removed := d.Expenses[i]
	d.Expenses = append(d.Expenses[:i], d.Expenses[i+1:]...)
	return removed
}

// EnsureIDs assigns IDs to expenses loaded from documents that predate them.
// It reports whether anything changed.
func (d *Document) EnsureIDs() bool {
	changed := false
	for i := range d.Expenses {
		if d.Expenses[i].ID == uuid.Nil {
			d.Expenses[i].ID = uuid.New()
			changed = true
		}
	}
	return changed
}
