package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// EventType names a change to the budget document.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseEdited  EventType = "expense.edited"
	EventExpenseDeleted EventType = "expense.deleted"
	EventBudgetSet      EventType = "budget.set"
)

// BudgetEvent describes one applied mutation and the totals right after it.
// Amounts travel as strings to keep decimal precision.
type BudgetEvent struct {
	Type        EventType `json:"type"`
	ExpenseID   string    `json:"expense_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Budget      string    `json:"budget"`
	Remaining   string    `json:"remaining"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event for an expense mutation
func NewExpenseEvent(t EventType, e core.Expense, doc core.Document) *BudgetEvent {
	return &BudgetEvent{
		Type:        t,
		ExpenseID:   e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount.String(),
		Budget:      doc.Budget.String(),
		Remaining:   doc.Remaining().String(),
		Timestamp:   time.Now(),
	}
}

// NewBudgetSetEvent creates an event for a budget change
func NewBudgetSetEvent(doc core.Document) *BudgetEvent {
	return &BudgetEvent{
		Type:      EventBudgetSet,
		Budget:    doc.Budget.String(),
		Remaining: doc.Remaining().String(),
		Timestamp: time.Now(),
	}
}

// RemainingDecimal parses Remaining, returning zero when it is malformed
func (m *BudgetEvent) RemainingDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.Remaining)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToJSON converts the message to JSON bytes
func (m *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetEventFromJSON creates a message from JSON bytes
func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var msg BudgetEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
