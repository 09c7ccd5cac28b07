package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// EventPublisher is the outbound port for change notifications.
type EventPublisher interface {
	PublishBudgetEvent(ctx context.Context, event *amqp.BudgetEvent) error
}

// Options tune BudgetService behavior.
type Options struct {
	// StrictSave propagates *store.SaveError to callers. When false a failed
	// save is logged and the caller proceeds as if it succeeded.
	StrictSave bool
	Publisher  EventPublisher
	Logger     *log.Logger
}

// BudgetService runs every operation as load, mutate, save against the
// store. Mutations are serialized within the process.
type BudgetService struct {
	mu         sync.Mutex
	store      store.Store
	publisher  EventPublisher
	strictSave bool
	logger     *log.Logger
}

func NewBudgetService(st store.Store, opts Options) *BudgetService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BudgetService{
		store:      st,
		publisher:  opts.Publisher,
		strictSave: opts.StrictSave,
		logger:     logger.WithComponent(log.ComponentBudget),
	}
}

// Summary loads the document and computes totals.
func (s *BudgetService) Summary(ctx context.Context) (core.Summary, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load budget: %w", err)
	}
	sum := core.Summarize(doc)
	s.logger.DebugContext(ctx, "Computed budget summary",
		log.NewFields().WithTotals(sum.Budget, sum.TotalSpent, sum.Remaining).WithOperation(log.OpRead).ToSlice()...)
	return sum, nil
}

// AddExpense appends a new expense.
func (s *BudgetService) AddExpense(ctx context.Context, description string, amount decimal.Decimal) (core.Expense, error) {
	var added core.Expense
	doc, saved, err := s.update(ctx, log.OpCreate, func(doc *core.Document) bool {
		added = doc.Append(description, amount)
		return true
	})
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithExpense(added.ID.String(), added.Description, added.Amount).WithOperation(log.OpCreate).ToSlice()...)
	s.publish(ctx, saved, amqp.NewExpenseEvent(amqp.EventExpenseAdded, added, doc))
	return added, nil
}

// EditExpense replaces description and amount of the expense ref points
// to. An unknown ref is a no-op and reports false.
func (s *BudgetService) EditExpense(ctx context.Context, ref, description string, amount decimal.Decimal) (bool, error) {
	var edited core.Expense
	found := false
	doc, saved, err := s.update(ctx, log.OpUpdate, func(doc *core.Document) bool {
		i, ok := doc.Locate(ref)
		if !ok {
			return false
		}
		edited = doc.Replace(i, description, amount)
		found = true
		return true
	})
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.DebugContext(ctx, "Edit ignored, no such expense", log.FieldExpenseRef, ref)
		return false, nil
	}
	s.logger.InfoContext(ctx, "Expense edited",
		log.NewFields().WithExpense(edited.ID.String(), edited.Description, edited.Amount).WithOperation(log.OpUpdate).ToSlice()...)
	s.publish(ctx, saved, amqp.NewExpenseEvent(amqp.EventExpenseEdited, edited, doc))
	return true, nil
}

// DeleteExpense removes the expense ref points to. An unknown ref is a
// no-op and reports false.
func (s *BudgetService) DeleteExpense(ctx context.Context, ref string) (bool, error) {
	var removed core.Expense
	found := false
	doc, saved, err := s.update(ctx, log.OpDelete, func(doc *core.Document) bool {
		i, ok := doc.Locate(ref)
		if !ok {
			return false
		}
		removed = doc.Remove(i)
		found = true
		return true
	})
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.DebugContext(ctx, "Delete ignored, no such expense", log.FieldExpenseRef, ref)
		return false, nil
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		log.NewFields().WithExpense(removed.ID.String(), removed.Description, removed.Amount).WithOperation(log.OpDelete).ToSlice()...)
	s.publish(ctx, saved, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, removed, doc))
	return true, nil
}

// SetBudget replaces the budget ceiling.
func (s *BudgetService) SetBudget(ctx context.Context, amount decimal.Decimal) error {
	doc, saved, err := s.update(ctx, log.OpUpdate, func(doc *core.Document) bool {
		doc.Budget = amount
		return true
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget set", log.FieldBudget, amount.String())
	s.publish(ctx, saved, amqp.NewBudgetSetEvent(doc))
	return nil
}

// update applies mutate under the service lock and saves when it reports
// a change. It returns the document as it stands after the mutation and
// whether that document reached the store.
func (s *BudgetService) update(ctx context.Context, op string, mutate func(*core.Document) bool) (core.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.Document{}, false, fmt.Errorf("load budget: %w", err)
	}
	if !mutate(&doc) {
		return doc, false, nil
	}

	if err := s.store.Save(ctx, doc); err != nil {
		var saveErr *store.SaveError
		if s.strictSave || !errors.As(err, &saveErr) {
			return core.Document{}, false, fmt.Errorf("%s: %w", op, err)
		}
		s.logger.ErrorContext(ctx, "Failed to save budget data, continuing",
			log.FieldError, err,
			log.FieldOperation, op,
			"error_type", log.ErrorTypeStorage)
		return doc, false, nil
	}
	return doc, true, nil
}

// publish sends event unless the change it describes was never saved.
func (s *BudgetService) publish(ctx context.Context, saved bool, event *amqp.BudgetEvent) {
	if s.publisher == nil {
		return
	}
	if !saved {
		s.logger.WarnContext(ctx, "Skipping event for unsaved change",
			log.FieldEventType, string(event.Type),
			log.FieldOperation, log.OpPublish)
		return
	}
	if err := s.publisher.PublishBudgetEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish budget event",
			log.FieldError, err,
			log.FieldEventType, string(event.Type),
			log.FieldOperation, log.OpPublish)
	}
}
