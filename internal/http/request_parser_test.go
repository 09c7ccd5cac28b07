package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// multipartBody encodes fields as multipart/form-data, the way curl -F does.
func multipartBody(t *testing.T, fields map[string]string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.String(), mw.FormDataContentType()
}

func newPost(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost("description=%20tea%20&amount=2&empty=", "application/x-www-form-urlencoded"))
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("description"); got != "tea" {
		t.Errorf("Get(description) = %q, want tea", got)
	}
	if !p.Has("empty") || p.Has("missing") {
		t.Error("Has() does not distinguish empty from missing")
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost(`{"description":"tea","amount":0.10}`, "application/json"))
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("amount"); got != "0.10" {
		t.Errorf("Get(amount) = %q, want 0.10", got)
	}
}

func TestRequestBodyParser_Multipart(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{"description": " tea ", "amount": "2,5", "empty": ""})
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost(body, ct))
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("description"); got != "tea" {
		t.Errorf("Get(description) = %q, want tea", got)
	}
	if got := p.Get("amount"); got != "2,5" {
		t.Errorf("Get(amount) = %q, want 2,5", got)
	}
	if !p.Has("empty") || p.Has("missing") {
		t.Error("Has() does not distinguish empty from missing")
	}
}

func TestRequestBodyParser_MultipartWithoutBoundary(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost("description=tea", "multipart/form-data"))
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for multipart body without boundary")
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost(`{"description":`, "application/json"))
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newPost("", ""))
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Has("description") {
		t.Error("empty body should have no fields")
	}
}

func TestParseExpenseInput(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		multipart map[string]string
		want      ExpenseInput
		wantErr   error
	}{
		{"dot decimal", "description=coffee&amount=3.50", nil, ExpenseInput{"coffee", decimal.RequireFromString("3.5")}, nil},
		{"comma decimal", "description=coffee&amount=3,50", nil, ExpenseInput{"coffee", decimal.RequireFromString("3.5")}, nil},
		{"negative allowed", "description=refund&amount=-4", nil, ExpenseInput{"refund", decimal.NewFromInt(-4)}, nil},
		{"empty description allowed", "description=&amount=1", nil, ExpenseInput{"", decimal.NewFromInt(1)}, nil},
		{"invalid amount", "description=coffee&amount=abc", nil, ExpenseInput{}, core.ErrInvalidAmount},
		{"missing amount", "description=coffee", nil, ExpenseInput{}, core.ErrMissingField},
		{"missing description", "amount=1", nil, ExpenseInput{}, core.ErrMissingField},
		{"multipart form", "", map[string]string{"description": "coffee", "amount": "3.50"}, ExpenseInput{"coffee", decimal.RequireFromString("3.5")}, nil},
		{"multipart missing amount", "", map[string]string{"description": "coffee"}, ExpenseInput{}, core.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := tt.body, "application/x-www-form-urlencoded"
			if tt.multipart != nil {
				body, ct = multipartBody(t, tt.multipart)
			}
			got, err := ParseExpenseInput(httptest.NewRecorder(), newPost(body, ct))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Description != tt.want.Description || !got.Amount.Equal(tt.want.Amount) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBudgetInput(t *testing.T) {
	got, err := ParseBudgetInput(httptest.NewRecorder(), newPost("budget=1200", "application/x-www-form-urlencoded"))
	if err != nil || !got.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("ParseBudgetInput = %s, %v", got, err)
	}
	if _, err := ParseBudgetInput(httptest.NewRecorder(), newPost("", "")); !errors.Is(err, core.ErrMissingField) {
		t.Fatalf("error = %v, want ErrMissingField", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":     "plain",
		"a\x00b":        "ab",
		"tab\tkept":     "tab\tkept",
		"line\nbreak":   "line\nbreak",
		"\x07bell\x1b ": "bell",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
