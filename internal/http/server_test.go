package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
	"budget/internal/store/jsonfile"
	"budget/internal/store/memory"
)

func newTestServer(t *testing.T, st store.Store, strict bool) *Server {
	t.Helper()
	svc := services.NewBudgetService(st, services.Options{StrictSave: strict, Logger: log.Discard()})
	srv := NewServer(":0", svc, ServerConfig{Logger: log.Discard(), Locale: "en", RequestsPerMinute: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func seeded(t *testing.T, budget string, items ...string) *memory.Store {
	t.Helper()
	doc := core.NewDocument()
	doc.Budget = decimal.RequireFromString(budget)
	for i := 0; i+1 < len(items); i += 2 {
		doc.Append(items[i], decimal.RequireFromString(items[i+1]))
	}
	return memory.NewWithDocument(doc)
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func load(t *testing.T, st store.Store) core.Document {
	t.Helper()
	doc, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func descriptions(doc core.Document) []string {
	out := make([]string, len(doc.Expenses))
	for i, e := range doc.Expenses {
		out[i] = e.Description
	}
	return out
}

func assertRedirectHome(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body=%q", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Fatalf("Location = %q, want /", loc)
	}
}

func assertInternalError(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if rr.Body.String() != "Internal Server Error" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestIndexRendersSummary(t *testing.T) {
	st := seeded(t, "1000", "coffee", "3.50", "rent", "500")
	srv := newTestServer(t, st, false)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	doc := load(t, st)
	for _, want := range []string{
		"Budget Tracker",
		"coffee",
		"rent",
		"1,000.00",
		"503.50",
		"496.50",
		"/delete/" + doc.Expenses[0].ID.String(),
		"/edit/" + doc.Expenses[1].ID.String(),
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header not set")
	}
}

func TestIndexEmptyStore(t *testing.T) {
	srv := newTestServer(t, memory.New(), false)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No expenses yet.") {
		t.Error("expected empty placeholder")
	}
}

func TestAddExpense(t *testing.T) {
	st := memory.New()
	srv := newTestServer(t, st, false)

	rr := postForm(srv, "/add", url.Values{"description": {"coffee"}, "amount": {"3.50"}})
	assertRedirectHome(t, rr)

	doc := load(t, st)
	if len(doc.Expenses) != 1 || doc.Expenses[0].Description != "coffee" {
		t.Fatalf("expenses = %v", descriptions(doc))
	}
	if !doc.TotalSpent().Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("total = %s", doc.TotalSpent())
	}
}

func TestAddExpenseJSONBody(t *testing.T) {
	st := memory.New()
	srv := newTestServer(t, st, false)

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(`{"description":"lunch","amount":12.75}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assertRedirectHome(t, rr)

	doc := load(t, st)
	if len(doc.Expenses) != 1 || !doc.Expenses[0].Amount.Equal(decimal.RequireFromString("12.75")) {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestAddExpenseMultipartBody(t *testing.T) {
	st := memory.New()
	srv := newTestServer(t, st, false)

	body, ct := multipartBody(t, map[string]string{"description": "coffee", "amount": "3.50"})
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assertRedirectHome(t, rr)

	doc := load(t, st)
	if len(doc.Expenses) != 1 || doc.Expenses[0].Description != "coffee" || !doc.Expenses[0].Amount.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("unexpected document: %+v", doc)
	}

	body, ct = multipartBody(t, map[string]string{"description": "tea", "amount": "2"})
	req = httptest.NewRequest(http.MethodPost, "/edit/0", strings.NewReader(body))
	req.Header.Set("Content-Type", ct)
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assertRedirectHome(t, rr)

	if got := descriptions(load(t, st)); len(got) != 1 || got[0] != "tea" {
		t.Fatalf("edit via multipart: %v", got)
	}
}

func TestAddExpenseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"non-numeric amount", url.Values{"description": {"x"}, "amount": {"abc"}}},
		{"amount beyond float range", url.Values{"description": {"x"}, "amount": {"1e10000000"}}},
		{"empty amount", url.Values{"description": {"x"}, "amount": {""}}},
		{"missing amount", url.Values{"description": {"x"}}},
		{"missing description", url.Values{"amount": {"1"}}},
		{"empty body", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seeded(t, "10", "a", "1")
			srv := newTestServer(t, st, false)

			assertInternalError(t, postForm(srv, "/add", tt.form))
			if st.Saves() != 0 {
				t.Fatalf("document was saved %d times", st.Saves())
			}
			if got := descriptions(load(t, st)); len(got) != 1 {
				t.Fatalf("expenses changed: %v", got)
			}
		})
	}
}

func TestAddExpenseBadAmountLeavesFileUnchanged(t *testing.T) {
	for _, amount := range []string{"abc", "1e10000000", "-1e10000000", "1e-10000000", "9e308"} {
		t.Run(amount, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "budget_data.json")
			st := jsonfile.New(path, log.Discard())

			doc := core.NewDocument()
			doc.Budget = decimal.RequireFromString("50")
			doc.Append("tea", decimal.RequireFromString("2"))
			if err := st.Save(context.Background(), doc); err != nil {
				t.Fatalf("seed: %v", err)
			}
			before, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}

			srv := newTestServer(t, st, false)
			assertInternalError(t, postForm(srv, "/add", url.Values{"description": {"x"}, "amount": {amount}}))
			assertInternalError(t, postForm(srv, "/edit/0", url.Values{"description": {"x"}, "amount": {amount}}))
			assertInternalError(t, postForm(srv, "/budget", url.Values{"budget": {amount}}))

			after, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(before, after) {
				t.Fatalf("file changed:\nbefore=%s\nafter=%s", before, after)
			}
		})
	}
}

func TestAddExpensePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget_data.json")
	srv := newTestServer(t, jsonfile.New(path, log.Discard()), false)

	assertRedirectHome(t, postForm(srv, "/add", url.Values{"description": {"coffee"}, "amount": {"3,50"}}))

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("data file not written: %v", err)
	}
	if !strings.Contains(string(raw), `"amount": 3.5`) {
		t.Fatalf("unexpected file contents: %s", raw)
	}
}

func TestDeleteExpense(t *testing.T) {
	tests := []struct {
		name string
		ref  func(core.Document) string
		want []string
	}{
		{"by index", func(core.Document) string { return "1" }, []string{"A", "C"}},
		{"by id", func(d core.Document) string { return d.Expenses[2].ID.String() }, []string{"A", "B"}},
		{"out of range", func(core.Document) string { return "5" }, []string{"A", "B", "C"}},
		{"negative", func(core.Document) string { return "-1" }, []string{"A", "B", "C"}},
		{"garbage", func(core.Document) string { return "first" }, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seeded(t, "10", "A", "1", "B", "2", "C", "3")
			srv := newTestServer(t, st, false)

			assertRedirectHome(t, postForm(srv, "/delete/"+tt.ref(load(t, st)), nil))

			got := descriptions(load(t, st))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expenses = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEditExpense(t *testing.T) {
	st := seeded(t, "10", "A", "1", "B", "2")
	srv := newTestServer(t, st, false)
	original := load(t, st)

	assertRedirectHome(t, postForm(srv, "/edit/0", url.Values{"description": {"Z"}, "amount": {"9"}}))
	doc := load(t, st)
	if doc.Expenses[0].Description != "Z" || !doc.Expenses[0].Amount.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("edit by index failed: %+v", doc.Expenses[0])
	}
	if doc.Expenses[0].ID != original.Expenses[0].ID {
		t.Fatal("edit must keep the expense id")
	}

	assertRedirectHome(t, postForm(srv, "/edit/"+original.Expenses[1].ID.String(), url.Values{"description": {"Y"}, "amount": {"4"}}))
	if got := descriptions(load(t, st)); strings.Join(got, ",") != "Z,Y" {
		t.Fatalf("edit by id failed: %v", got)
	}

	assertRedirectHome(t, postForm(srv, "/edit/7", url.Values{"description": {"Q"}, "amount": {"1"}}))
	if got := descriptions(load(t, st)); strings.Join(got, ",") != "Z,Y" {
		t.Fatalf("out of range edit changed document: %v", got)
	}

	assertInternalError(t, postForm(srv, "/edit/0", url.Values{"description": {"Q"}, "amount": {"lots"}}))
	assertInternalError(t, postForm(srv, "/edit/0", url.Values{"amount": {"1"}}))
	if got := descriptions(load(t, st)); strings.Join(got, ",") != "Z,Y" {
		t.Fatalf("rejected edit changed document: %v", got)
	}
}

func TestSetBudget(t *testing.T) {
	st := seeded(t, "10", "A", "4")
	srv := newTestServer(t, st, false)

	assertRedirectHome(t, postForm(srv, "/budget", url.Values{"budget": {"250.25"}}))
	doc := load(t, st)
	if !doc.Budget.Equal(decimal.RequireFromString("250.25")) {
		t.Fatalf("budget = %s", doc.Budget)
	}
	if !doc.Remaining().Equal(decimal.RequireFromString("246.25")) {
		t.Fatalf("remaining = %s", doc.Remaining())
	}

	assertInternalError(t, postForm(srv, "/budget", url.Values{"budget": {"nope"}}))
}

func TestSaveFailure(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		want   int
	}{
		{"swallowed by default", false, http.StatusSeeOther},
		{"strict save surfaces error", true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			st.FailSave = errors.New("disk full")
			srv := newTestServer(t, st, tt.strict)

			rr := postForm(srv, "/add", url.Values{"description": {"x"}, "amount": {"1"}})
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, seeded(t, "10", "A", "1"), false)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "budget.xlsx") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, memory.New(), false)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s Content-Type=%q", path, ct)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, memory.New(), false)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t, memory.New(), false)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/add", http.StatusMethodNotAllowed},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

func TestRateLimitOnPost(t *testing.T) {
	svc := services.NewBudgetService(memory.New(), services.Options{Logger: log.Discard()})
	srv := NewServer(":0", svc, ServerConfig{Logger: log.Discard(), RequestsPerMinute: 2})
	defer srv.Shutdown(context.Background())

	form := url.Values{"description": {"x"}, "amount": {"1"}}
	for i := 0; i < 2; i++ {
		assertRedirectHome(t, postForm(srv, "/add", form))
	}
	if rr := postForm(srv, "/add", form); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET limited: %d", rr.Code)
	}
}
