// Package binder decodes HTTP request bodies into tagged structs.
//
// Form handles application/x-www-form-urlencoded and multipart/form-data
// using `form:"name"` and `file:"name"` tags; JSON handles application/json.
// A binder given a request with a content type it does not handle returns
// ErrBinderNotApplicable, so several binders can be tried in turn:
//
//	handler.Wrap(h, handler.WithBinders(binder.Form(), binder.JSON()))
//
// Field types implementing encoding.TextUnmarshaler decode themselves from
// the raw form value.
package binder

import (
	"errors"
	"mime"
	"net/http"
)

var (
	ErrBinderNotApplicable  = errors.New("binder not applicable to request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidForm          = errors.New("failed to parse form data")
	ErrInvalidJSON          = errors.New("failed to parse JSON request body")
)

// Binder decodes r into v.
type Binder func(r *http.Request, v any) error

func mediaType(r *http.Request) (string, map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", nil, ErrMissingContentType
	}
	return mime.ParseMediaType(ct)
}
