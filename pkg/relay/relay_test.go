package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxesispharma/emission/pkg/relay"
)

func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("delivers payload", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Equal(t, "auxesis-emission/1.0", r.Header.Get("User-Agent"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		res := relay.New().PostJSON(context.Background(), srv.URL,
			map[string]any{"formName": "Auxesis Teckningsanmälan", "shares": "1000"},
		)
		require.True(t, res.OK(), "%v", res.Err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "Auxesis Teckningsanmälan", got["formName"])
	})

	t.Run("non-2xx is rejected without retry", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream\nbroken"))
		}))
		defer srv.Close()

		res := relay.New().PostJSON(context.Background(), srv.URL, map[string]string{"a": "b"})
		assert.False(t, res.OK())
		assert.ErrorIs(t, res.Err, relay.ErrRejected)
		assert.Contains(t, res.Err.Error(), "upstream broken")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("long error body is cut on a rune boundary", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte("x" + strings.Repeat("ä", 300)))
		}))
		defer srv.Close()

		res := relay.New().PostJSON(context.Background(), srv.URL, map[string]string{})
		require.ErrorIs(t, res.Err, relay.ErrRejected)
		msg := res.Err.Error()
		assert.True(t, utf8.ValidString(msg), "invalid UTF-8 in %q", msg)
		assert.True(t, strings.HasSuffix(msg, "ä..."))
		assert.Len(t, res.Body, 601)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		res := relay.New().PostJSON(context.Background(), srv.URL, map[string]string{}, relay.WithTimeout(20*time.Millisecond))
		assert.ErrorIs(t, res.Err, relay.ErrTimeout)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := relay.New().PostJSON(context.Background(), url, map[string]string{})
		assert.ErrorIs(t, res.Err, relay.ErrUnreachable)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		for _, u := range []string{"", "ftp://example.com", "http://"} {
			res := relay.New().PostJSON(context.Background(), u, map[string]string{})
			assert.ErrorIs(t, res.Err, relay.ErrInvalidURL, u)
		}
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()
		res := relay.New().PostJSON(context.Background(), "https://example.com", map[string]any{"ch": make(chan int)})
		assert.ErrorIs(t, res.Err, relay.ErrInvalidPayload)
	})
}

func TestPostMultipart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, `{"name":"Anna"}`, r.MultipartForm.Value["meta"][0])

		fhs := r.MultipartForm.File["pdf"]
		require.Len(t, fhs, 1)
		assert.Equal(t, "Teckningsanmalan_1.pdf", fhs[0].Filename)
		assert.Equal(t, "application/pdf", fhs[0].Header.Get("Content-Type"))
		f, err := fhs[0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.3", string(content))

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := relay.New().PostMultipart(context.Background(), srv.URL, []relay.Part{
		{Name: "pdf", Filename: "Teckningsanmalan_1.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")},
		{Name: "meta", Content: []byte(`{"name":"Anna"}`)},
	})
	require.True(t, res.OK(), "%v", res.Err)

	res = relay.New().PostMultipart(context.Background(), srv.URL, []relay.Part{{Content: []byte("x")}})
	assert.ErrorIs(t, res.Err, relay.ErrInvalidPayload)
}
