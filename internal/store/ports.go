package store

import (
	"context"
	"fmt"

	"budget/internal/core"
)

// Ports for document persistence.
type (
	// Loader reads the whole budget document. Implementations recover from
	// missing or corrupt data by returning core.NewDocument().
	Loader interface {
		Load(ctx context.Context) (core.Document, error)
	}

	// Saver overwrites the whole budget document.
	Saver interface {
		Save(ctx context.Context, doc core.Document) error
	}

	Store interface {
		Loader
		Saver
	}
)

// SaveError reports a failed write of the budget document.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save budget document %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
