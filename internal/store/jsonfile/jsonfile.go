// Package jsonfile persists the budget document as one JSON file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// DefaultFileName is the document name used when no path is configured.
const DefaultFileName = "budget_data.json"

// fileDocument is the on-disk schema. Numbers stay numbers in the file.
// Reads go through rawDocument so one bad number does not discard the rest.
type fileDocument struct {
	Budget   json.Number   `json:"budget"`
	Expenses []fileExpense `json:"expenses"`
}

type fileExpense struct {
	ID          string      `json:"id,omitempty"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

type rawDocument struct {
	Budget   json.RawMessage `json:"budget"`
	Expenses []rawExpense    `json:"expenses"`
}

type rawExpense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
}

var errNoNumber = errors.New("no number")

// Store reads and rewrites a single JSON document. It holds no state
// between calls; every Load goes back to disk.
type Store struct {
	path   string
	logger *log.Logger
}

var _ store.Store = (*Store)(nil)

func New(path string, logger *log.Logger) *Store {
	if path == "" {
		path = DefaultFileName
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{path: path, logger: logger.WithComponent(log.ComponentStorage)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing, unreadable or malformed file yields an
// empty document and a nil error; the cause is only logged.
func (s *Store) Load(ctx context.Context) (core.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.DebugContext(ctx, "Budget file not found, starting with an empty budget", log.FieldFile, s.path)
		} else {
			s.logger.WarnContext(ctx, "Budget file unreadable, starting with an empty budget",
				log.FieldFile, s.path, log.FieldError, err, log.FieldOperation, log.OpLoad)
		}
		return core.NewDocument(), nil
	}

	doc, err := s.decode(ctx, data)
	if err != nil {
		s.logger.WarnContext(ctx, "Budget file is not valid, starting with an empty budget",
			log.FieldFile, s.path, log.FieldError, err, log.FieldOperation, log.OpParse)
		return core.NewDocument(), nil
	}

	if doc.EnsureIDs() {
		s.logger.DebugContext(ctx, "Assigned ids to expenses without one", log.FieldFile, s.path)
	}

	s.logger.DebugContext(ctx, "Loaded budget data",
		log.FieldFile, s.path,
		log.FieldBudget, doc.Budget.String(),
		log.FieldExpenseCount, len(doc.Expenses))
	return doc, nil
}

// Save overwrites the file with the indented document. Failures are
// returned as *store.SaveError.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	data, err := encode(doc)
	if err != nil {
		return &store.SaveError{Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return &store.SaveError{Path: s.path, Err: err}
	}
	s.logger.DebugContext(ctx, "Budget data saved",
		log.FieldFile, s.path,
		log.FieldExpenseCount, len(doc.Expenses),
		log.FieldOperation, log.OpSave)
	return nil
}

// decode builds a document from file contents. Only malformed JSON is an
// error; an unusable budget or amount is logged and read as zero.
func (s *Store) decode(ctx context.Context, data []byte) (core.Document, error) {
	var rd rawDocument
	if err := json.Unmarshal(data, &rd); err != nil {
		return core.Document{}, err
	}

	doc := core.NewDocument()
	if budget, err := parseNumber(rd.Budget); err == nil {
		doc.Budget = budget
	} else if !errors.Is(err, errNoNumber) {
		s.logger.WarnContext(ctx, "Budget is not a usable number, reading it as zero",
			log.FieldFile, s.path, log.FieldError, err, log.FieldOperation, log.OpParse)
	}

	for i, re := range rd.Expenses {
		e := core.Expense{Description: re.Description}
		amount, err := parseNumber(re.Amount)
		if err != nil {
			s.logger.WarnContext(ctx, "Expense amount is not a usable number, reading it as zero",
				log.FieldFile, s.path,
				log.FieldError, err,
				log.FieldExpenseDesc, re.Description,
				"position", i,
				log.FieldOperation, log.OpParse)
			amount = decimal.Zero
		}
		e.Amount = amount
		if re.ID != "" {
			if id, err := uuid.Parse(re.ID); err == nil {
				e.ID = id
			}
		}
		doc.Expenses = append(doc.Expenses, e)
	}
	return doc, nil
}

// parseNumber reads a JSON number, or a string holding one. Absent and null
// values report errNoNumber.
func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, errNoNumber
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
	}
	amount, err := core.ParseAmount(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%.40q: %w", text, err)
	}
	return amount, nil
}

func encode(doc core.Document) ([]byte, error) {
	fd := fileDocument{
		Budget:   json.Number(doc.Budget.String()),
		Expenses: make([]fileExpense, len(doc.Expenses)),
	}
	for i, e := range doc.Expenses {
		fe := fileExpense{Description: e.Description, Amount: json.Number(e.Amount.String())}
		if e.ID != uuid.Nil {
			fe.ID = e.ID.String()
		}
		fd.Expenses[i] = fe
	}
	return json.MarshalIndent(fd, "", "    ")
}
