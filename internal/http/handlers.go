package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"budget/internal/export"
	"budget/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().BodyJSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if _, err := s.svc.Summary(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"rejected":       s.rateLimiter.Hits(),
	}

	NewResponse().Status(httpStatus).BodyJSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)

	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		InternalServerError().Write(w)
		return
	}

	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load budget summary", log.FieldError, err)
		InternalServerError().Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", newIndexPage(sum, s.formatter, s.locale)); err != nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", "index.html")
		InternalServerError().Write(w)
		return
	}
	NewResponse().BodyHTML(buf.Bytes()).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)

	in, err := ParseExpenseInput(w, r)
	if err != nil {
		s.fail(w, r, logger, "Invalid add expense request", err, log.ErrorTypeValidation)
		return
	}

	if _, err := s.svc.AddExpense(r.Context(), in.Description, in.Amount); err != nil {
		s.fail(w, r, logger, "Failed to add expense", err, log.ErrorTypeStorage)
		return
	}
	RedirectHome().Write(w)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	ref := r.PathValue("ref")

	in, err := ParseExpenseInput(w, r)
	if err != nil {
		s.fail(w, r, logger, "Invalid edit expense request", err, log.ErrorTypeValidation, log.FieldExpenseRef, ref)
		return
	}

	// an unknown ref is a no-op and still redirects
	if _, err := s.svc.EditExpense(r.Context(), ref, in.Description, in.Amount); err != nil {
		s.fail(w, r, logger, "Failed to edit expense", err, log.ErrorTypeStorage, log.FieldExpenseRef, ref)
		return
	}
	RedirectHome().Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	ref := r.PathValue("ref")

	if _, err := s.svc.DeleteExpense(r.Context(), ref); err != nil {
		s.fail(w, r, logger, "Failed to delete expense", err, log.ErrorTypeStorage, log.FieldExpenseRef, ref)
		return
	}
	RedirectHome().Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)

	amount, err := ParseBudgetInput(w, r)
	if err != nil {
		s.fail(w, r, logger, "Invalid set budget request", err, log.ErrorTypeValidation)
		return
	}
	if err := s.svc.SetBudget(r.Context(), amount); err != nil {
		s.fail(w, r, logger, "Failed to set budget", err, log.ErrorTypeStorage)
		return
	}
	RedirectHome().Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExport)

	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.fail(w, r, logger, "Failed to load budget for export", err, log.ErrorTypeStorage)
		return
	}
	data, err := export.ExpensesXLSX(sum)
	if err != nil {
		s.fail(w, r, logger, "Failed to build spreadsheet", err, log.ErrorTypeInternal)
		return
	}

	logger.InfoContext(r.Context(), "Budget exported",
		log.FieldExpenseCount, len(sum.Expenses),
		log.FieldOperation, log.OpExport)
	Attachment("budget.xlsx", export.ContentType, data).Write(w)
}

// fail logs err with its category and answers with the generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, logger *log.Logger, msg string, err error, errorType string, args ...any) {
	args = append(args, log.FieldError, err, "error_type", errorType, log.FieldPath, r.URL.Path)
	logger.ErrorContext(r.Context(), msg, args...)
	InternalServerError().Write(w)
}
