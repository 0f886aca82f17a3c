package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNilResponse = errors.New("handler returned nil response")
	ErrBadRequest  = NewHTTPError(http.StatusBadRequest, "bad_request")
	ErrNotFound    = NewHTTPError(http.StatusNotFound, "not_found")
	ErrConflict    = NewHTTPError(http.StatusConflict, "conflict")
)

// HTTPError is an error with an HTTP status and a stable machine-readable
// key. Text, when set, is shown to the user instead of the status text.
type HTTPError struct {
	Code int
	Key  string
	Text string
}

func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

// WithText returns a copy carrying a user-facing message.
func (e HTTPError) WithText(text string) HTTPError {
	e.Text = text
	return e
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Key)
}

// Message is the user-facing text.
func (e HTTPError) Message() string {
	if e.Text != "" {
		return e.Text
	}
	return http.StatusText(e.Code)
}

// Is matches any HTTPError with the same code and key.
func (e HTTPError) Is(target error) bool {
	var t HTTPError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Key == e.Key
}

// ValidationError maps field names to messages.
type ValidationError map[string][]string

func NewValidationError() ValidationError {
	return ValidationError{}
}

func (v ValidationError) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationError) Has(field string) bool {
	return len(v[field]) > 0
}

// Get returns the first message for field.
func (v ValidationError) Get(field string) string {
	if msgs := v[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (v ValidationError) IsEmpty() bool {
	return len(v) == 0
}

func (v ValidationError) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.Get(f))
	}
	return "validation error: " + strings.Join(parts, "; ")
}
