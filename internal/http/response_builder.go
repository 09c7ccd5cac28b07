// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for handler responses so every
// endpoint answers errors, redirects and downloads the same way.

package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *ResponseBuilder) Body(content []byte) *ResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as plain text.
func (b *ResponseBuilder) BodyString(content string) *ResponseBuilder {
	if _, ok := b.headers["Content-Type"]; !ok {
		b.headers["Content-Type"] = "text/plain; charset=utf-8"
	}
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *ResponseBuilder) BodyHTML(html []byte) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// BodyJSON encodes v as the response body.
func (b *ResponseBuilder) BodyJSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		return InternalServerError()
	}
	b.headers["Content-Type"] = "application/json"
	b.body = data
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(b.body)))
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a plain-text error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		Header("X-Content-Type-Options", "nosniff").
		BodyString(message)
}

// InternalServerError is the single failure answer of the mutation
// endpoints. Details go to the log, never to the client.
func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// RedirectHome sends the browser back to the index page after a form post.
func RedirectHome() *ResponseBuilder {
	return NewResponse().
		Status(http.StatusSeeOther).
		Header("Location", "/")
}

// Attachment creates a download response.
func Attachment(filename, contentType string, data []byte) *ResponseBuilder {
	return NewResponse().
		Header("Content-Type", contentType).
		Header("Content-Disposition", `attachment; filename="`+filename+`"`).
		Header("Cache-Control", "no-store").
		Body(data)
}
