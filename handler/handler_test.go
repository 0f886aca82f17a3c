package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/pkg/binder"
)

type totalRequest struct {
	Shares string `form:"shares" json:"shares"`
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func formPost(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func datastarRequest(r *http.Request) *http.Request {
	r.Header.Set("Datastar-Request", "true")
	r.Header.Set("Accept", "text/event-stream")
	return r
}

func TestWrap_Binders(t *testing.T) {
	t.Parallel()

	h := handler.HandlerFunc[totalRequest](func(ctx handler.Context, req totalRequest) handler.Response {
		return handler.JSON(map[string]string{"shares": req.Shares})
	})
	wrapped := handler.Wrap(h, handler.WithBinders[totalRequest](binder.Form(), binder.JSON()))

	t.Run("form", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		wrapped(rec, formPost(url.Values{"shares": {"1000"}}))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"shares":"1000"}}`, rec.Body.String())
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shares":"5"}`))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		wrapped(rec, r)
		assert.JSONEq(t, `{"data":{"shares":"5"}}`, rec.Body.String())
	})

	t.Run("no body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		wrapped(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.JSONEq(t, `{"data":{"shares":""}}`, rec.Body.String())
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shares":`))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		wrapped(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWrap_DecoratorsAndErrors(t *testing.T) {
	t.Parallel()

	var order []string
	decorate := func(name string) handler.Decorator[totalRequest] {
		return func(next handler.HandlerFunc[totalRequest]) handler.HandlerFunc[totalRequest] {
			return func(ctx handler.Context, req totalRequest) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	var handled error
	h := handler.Wrap(
		handler.HandlerFunc[totalRequest](func(ctx handler.Context, req totalRequest) handler.Response { return nil }),
		handler.WithDecorators(decorate("outer"), decorate("inner")),
		handler.WithErrorHandler[totalRequest](func(ctx handler.Context, err error) { handled = err }),
	)
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.ErrorIs(t, handled, handler.ErrNilResponse)
}

func TestWrap_DefaultErrorHandler(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(handler.HandlerFunc[struct{}](func(ctx handler.Context, _ struct{}) handler.Response {
		return handler.ResponseFunc(func(w http.ResponseWriter, r *http.Request) error {
			return handler.ErrNotFound
		})
	}))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestError_ReachesErrorHandler(t *testing.T) {
	t.Parallel()

	var handled error
	h := handler.Wrap(
		handler.HandlerFunc[struct{}](func(ctx handler.Context, _ struct{}) handler.Response {
			return handler.Error(handler.ErrConflict)
		}),
		handler.WithErrorHandler[struct{}](func(ctx handler.Context, err error) { handled = err }),
	)
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, handled, handler.ErrConflict)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    any
		status int
		code   string
	}{
		{name: "validation", err: handler.ValidationError{"email": {"Ogiltig e-postadress"}}, status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "http error", err: handler.NewHTTPError(http.StatusBadRequest, "missing_document").WithText("Ingen PDF mottagen"), status: http.StatusBadRequest, code: "missing_document"},
		{name: "detail", err: &handler.ErrorDetail{Code: "mail_provider_error", Message: "boom"}, status: http.StatusInternalServerError, code: "mail_provider_error"},
		{name: "plain error", err: errors.New("secret internals"), status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
			assert.Equal(t, tt.status, rec.Code)

			var body handler.JSONResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotContains(t, rec.Body.String(), "secret internals")
		})
	}

	rec := httptest.NewRecorder()
	require.NoError(t, handler.JSONError(handler.ValidationError{"email": {"Ogiltig e-postadress"}}).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Contains(t, rec.Body.String(), "Ogiltig e-postadress")
}

func TestTemplResponses(t *testing.T) {
	t.Parallel()

	t.Run("plain request renders html", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, handler.TemplStatus(http.StatusUnprocessableEntity, text("<p>form</p>")).Render(rec, r))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "<p>form</p>", rec.Body.String())
	})

	t.Run("datastar request patches elements", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r := datastarRequest(httptest.NewRequest(http.MethodPost, "/", nil))
		resp := handler.TemplMulti(
			handler.Patch(text(`<span id="total">82 000 SEK</span>`)),
			handler.Patch(text(`<div>toast</div>`), handler.WithTarget("#toasts"), handler.WithPatchMode(handler.PatchAppend)),
		)
		require.NoError(t, resp.Render(rec, r))
		body := rec.Body.String()
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, body, "datastar-patch-elements")
		assert.Contains(t, body, "82 000 SEK")
		assert.Contains(t, body, "#toasts")
	})

	t.Run("partial vs full", func(t *testing.T) {
		t.Parallel()
		resp := handler.TemplPartial(text("partial"), text("full"))

		rec := httptest.NewRecorder()
		require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, "full", rec.Body.String())

		rec = httptest.NewRecorder()
		require.NoError(t, resp.Render(rec, datastarRequest(httptest.NewRequest(http.MethodGet, "/", nil))))
		assert.Contains(t, rec.Body.String(), "partial")
	})
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Redirect("/confirmation").Render(rec, httptest.NewRequest(http.MethodPost, "/subscribe", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/confirmation", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Redirect("/confirmation").Render(rec, datastarRequest(httptest.NewRequest(http.MethodPost, "/subscribe", nil))))
	assert.Contains(t, rec.Body.String(), "/confirmation")
}

func TestAttachment(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Attachment("Teckningsanmalan_1.pdf", "application/pdf", []byte("%PDF")).
		Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Teckningsanmalan_1.pdf", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Empty(http.StatusAccepted).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	ve := handler.NewValidationError()
	assert.True(t, ve.IsEmpty())
	assert.Equal(t, "validation failed", ve.Error())

	ve.Add("name", "Namn måste anges")
	ve.Add("email", "Ogiltig e-postadress")
	ve.Add("email", "second")
	assert.True(t, ve.Has("email"))
	assert.False(t, ve.Has("phone"))
	assert.Equal(t, "Ogiltig e-postadress", ve.Get("email"))
	assert.Equal(t, "validation error: email: Ogiltig e-postadress; name: Namn måste anges", ve.Error())
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	err := handler.NewHTTPError(http.StatusBadRequest, "missing_document").WithText("Ingen PDF mottagen")
	assert.Equal(t, "Ingen PDF mottagen", err.Message())
	assert.Equal(t, "Bad Request", handler.ErrBadRequest.Message())
	assert.ErrorIs(t, errors.Join(handler.ErrBadRequest, errors.New("x")), handler.ErrBadRequest)
	assert.NotErrorIs(t, handler.ErrNotFound, handler.ErrBadRequest)
}
