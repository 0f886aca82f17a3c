package binder

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
)

// DefaultMaxMemory bounds the in-memory part of a parsed multipart form.
const DefaultMaxMemory = 10 << 20

var fileHeaderType = reflect.TypeOf((*multipart.FileHeader)(nil))

// Form binds form values and uploaded files.
//
//	type Upload struct {
//		Meta string                `form:"meta"`
//		PDF  *multipart.FileHeader `file:"pdf"`
//	}
//
// Uploaded file names are reduced to their base name.
func Form() Binder {
	return func(r *http.Request, v any) error {
		mt, params, err := mediaType(r)
		if err != nil {
			return ErrBinderNotApplicable
		}

		var (
			values map[string][]string
			files  map[string][]*multipart.FileHeader
		)

		switch mt {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
			values = r.PostForm
		case "multipart/form-data":
			if !validBoundary(params["boundary"]) {
				return fmt.Errorf("%w: invalid multipart boundary", ErrInvalidForm)
			}
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
			values = r.MultipartForm.Value
			files = r.MultipartForm.File
		default:
			return ErrBinderNotApplicable
		}

		return bindValues(v, values, files)
	}
}

func bindValues(v any, values map[string][]string, files map[string][]*multipart.FileHeader) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to struct", ErrInvalidForm)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		if name := tagName(sf.Tag.Get("form")); name != "" {
			if vals := values[name]; len(vals) > 0 {
				if err := setFieldValue(field, vals); err != nil {
					return fmt.Errorf("%w: field %s: %v", ErrInvalidForm, name, err)
				}
			}
		}

		if name := tagName(sf.Tag.Get("file")); name != "" {
			if fhs := files[name]; len(fhs) > 0 {
				if err := setFileField(field, fhs); err != nil {
					return fmt.Errorf("%w: field %s: %v", ErrInvalidForm, name, err)
				}
			}
		}
	}
	return nil
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func setFileField(field reflect.Value, fhs []*multipart.FileHeader) error {
	for _, fh := range fhs {
		fh.Filename = sanitizeFilename(fh.Filename)
	}
	switch {
	case field.Type() == fileHeaderType:
		field.Set(reflect.ValueOf(fhs[0]))
	case field.Kind() == reflect.Slice && field.Type().Elem() == fileHeaderType:
		field.Set(reflect.ValueOf(fhs))
	default:
		return fmt.Errorf("unsupported file field type %s", field.Type())
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ReplaceAll(filepath.Base(name), "\x00", "")
	if name == "." || name == ".." || name == "/" || name == "" {
		return ""
	}
	return name
}

// validBoundary follows RFC 2046: 1-70 characters from a restricted set.
func validBoundary(b string) bool {
	if len(b) == 0 || len(b) > 70 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune("'()+_,-./:=? ", c):
		default:
			return false
		}
	}
	return !strings.HasSuffix(b, " ")
}
