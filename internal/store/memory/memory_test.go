package memory

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/store"
)

func TestMemoryStoreLoadSave(t *testing.T) {
	s := New()
	doc, err := s.Load(context.Background())
	if err != nil || !doc.Budget.IsZero() || len(doc.Expenses) != 0 {
		t.Fatalf("unexpected initial doc: %+v err=%v", doc, err)
	}

	doc.Budget = decimal.NewFromInt(50)
	doc.Append("t", decimal.NewFromInt(1))
	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	doc.Expenses[0].Description = "changed"

	got, _ := s.Load(context.Background())
	if got.Expenses[0].Description != "t" || !got.Budget.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected stored doc: %+v", got)
	}
	if s.Saves() != 1 {
		t.Fatalf("saves = %d", s.Saves())
	}
}

func TestMemoryStoreFailSave(t *testing.T) {
	s := NewWithDocument(core.Document{Expenses: []core.Expense{{Description: "x", Amount: decimal.NewFromInt(2)}}})
	s.FailSave = os.ErrPermission

	err := s.Save(context.Background(), core.NewDocument())
	var saveErr *store.SaveError
	if !errors.As(err, &saveErr) || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected SaveError wrapping permission error, got %v", err)
	}

	doc, _ := s.Load(context.Background())
	if len(doc.Expenses) != 1 {
		t.Fatalf("failed save must not change the document: %+v", doc)
	}
}

func TestNewWithDocumentLeavesCallerUntouched(t *testing.T) {
	doc := core.Document{
		Budget:   decimal.NewFromInt(10),
		Expenses: []core.Expense{{Description: "legacy", Amount: decimal.NewFromInt(1)}},
	}
	s := NewWithDocument(doc)

	if doc.Expenses[0].ID != uuid.Nil {
		t.Fatalf("caller's expense was assigned id %s", doc.Expenses[0].ID)
	}
	got, _ := s.Load(context.Background())
	if got.Expenses[0].ID == uuid.Nil {
		t.Fatal("stored expense has no id")
	}
}
