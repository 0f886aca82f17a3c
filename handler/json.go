package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope of every JSON response.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON responds with {"data": v}.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError responds with {"error": {...}}. err may be an *ErrorDetail or any
// error; HTTPError and ValidationError map to their own status codes, other
// errors to 500.
func JSONError(err any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	switch e := err.(type) {
	case *ErrorDetail:
		r.body.Error = e
	case error:
		r.body.Error, r.status = errorToDetail(e)
	default:
		r.body.Error = &ErrorDetail{Code: "internal_error"}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (*ErrorDetail, int) {
	var ve ValidationError
	if errors.As(err, &ve) {
		d := &ErrorDetail{Code: "validation_error", Message: "validation failed", Details: make(map[string][]string, len(ve))}
		maps.Copy(d.Details, ve)
		return d, http.StatusUnprocessableEntity
	}
	var he HTTPError
	if errors.As(err, &he) {
		return &ErrorDetail{Code: he.Key, Message: he.Message()}, he.Code
	}
	return &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
}
