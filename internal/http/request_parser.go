// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request data. Mutation
// endpoints accept form-encoded bodies (the HTML page), multipart forms
// and JSON.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	mediaType, params, _ := mime.ParseMediaType(p.contentType)
	if mediaType == "multipart/form-data" {
		p.formData, p.err = parseMultipart(p.body, params["boundary"])
		return p.err
	}

	if trimmed[0] == '{' || mediaType == "application/json" {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// parseMultipart keeps the value parts of a multipart form. File parts are
// discarded.
func parseMultipart(body []byte, boundary string) (url.Values, error) {
	if boundary == "" {
		return nil, errors.New("multipart body without boundary")
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("decode multipart body: %w", err)
	}
	defer form.RemoveAll()
	return url.Values(form.Value), nil
}

// Has reports whether key was sent at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		return p.formData.Has(key)
	}
	return false
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Require returns the value of key or an error wrapping core.ErrMissingField.
func (p *RequestBodyParser) Require(key string) (string, error) {
	if !p.Has(key) {
		return "", fmt.Errorf("%w: %s", core.ErrMissingField, key)
	}
	return p.Get(key), nil
}

// RequireAmount returns key parsed with core.ParseAmount.
func (p *RequestBodyParser) RequireAmount(key string) (decimal.Decimal, error) {
	raw, err := p.Require(key)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	return amount, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ExpenseInput is the description and amount of an add or edit request.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
}

// ParseExpenseInput reads the description and amount fields. Both must be
// present; the amount must parse as a number.
func ParseExpenseInput(w http.ResponseWriter, r *http.Request) (ExpenseInput, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return ExpenseInput{}, fmt.Errorf("parse request body: %w", err)
	}
	desc, err := p.Require("description")
	if err != nil {
		return ExpenseInput{}, err
	}
	amount, err := p.RequireAmount("amount")
	if err != nil {
		return ExpenseInput{}, err
	}
	return ExpenseInput{Description: desc, Amount: amount}, nil
}

// ParseBudgetInput reads the budget field.
func ParseBudgetInput(w http.ResponseWriter, r *http.Request) (decimal.Decimal, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return decimal.Zero, fmt.Errorf("parse request body: %w", err)
	}
	return p.RequireAmount("budget")
}
