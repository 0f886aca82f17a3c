// Package relay posts payloads to third-party HTTP endpoints.
//
// Each call makes exactly one attempt: delivery failures are reported, never
// retried. PostJSON sends a JSON document, PostMultipart a multipart form
// with text fields and file parts. Any 2xx response counts as success; the
// status code and a truncated response body are kept on failure for logging.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"unicode/utf8"
	"time"
)

var (
	ErrInvalidURL     = errors.New("relay: invalid URL")
	ErrInvalidPayload = errors.New("relay: invalid payload")
	ErrTimeout        = errors.New("relay: request timed out")
	ErrUnreachable    = errors.New("relay: endpoint unreachable")
	ErrRejected       = errors.New("relay: endpoint rejected payload")
)

const maxErrorBody = 200

// Result describes one delivery attempt.
type Result struct {
	URL        string
	StatusCode int
	Duration   time.Duration
	Body       []byte
	Err        error
}

// OK reports whether the endpoint accepted the payload.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Option configures a single call.
type Option func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

const userAgent = "auxesis-emission/1.0"

// Client posts payloads. The zero value is not usable; use New.
type Client struct {
	http *http.Client
}

func New() *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// PostJSON marshals data and posts it with Accept: application/json.
func (c *Client) PostJSON(ctx context.Context, endpoint string, data any, opts ...Option) Result {
	payload, err := json.Marshal(data)
	if err != nil {
		return Result{URL: endpoint, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
	}
	return c.post(ctx, endpoint, "application/json", payload, opts)
}

// Part is one multipart form part. Parts with a Filename are sent as files.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Content     []byte
}

// PostMultipart posts parts as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, endpoint string, parts []Part, opts ...Option) Result {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if err := writePart(w, p); err != nil {
			return Result{URL: endpoint, Err: fmt.Errorf("%w: part %q: %v", ErrInvalidPayload, p.Name, err)}
		}
	}
	if err := w.Close(); err != nil {
		return Result{URL: endpoint, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
	}
	return c.post(ctx, endpoint, w.FormDataContentType(), buf.Bytes(), opts)
}

func writePart(w *multipart.Writer, p Part) error {
	if p.Name == "" {
		return errors.New("part name is required")
	}
	if p.Filename == "" && p.ContentType == "" {
		return w.WriteField(p.Name, string(p.Content))
	}

	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name=%q`, p.Name)
	if p.Filename != "" {
		disposition += fmt.Sprintf(`; filename=%q`, p.Filename)
	}
	h.Set("Content-Disposition", disposition)
	ct := p.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = pw.Write(p.Content)
	return err
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, payload []byte, opts []Option) Result {
	o := &callOptions{timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	return c.do(ctx, endpoint, contentType, payload, o)
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, payload []byte, o *callOptions) Result {
	res := Result{URL: endpoint}
	if err := validateURL(endpoint); err != nil {
		res.Err = err
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrInvalidURL, err)
		return res
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.Err = fmt.Errorf("%w: %v", ErrTimeout, err)
		} else {
			res.Err = fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Body, _ = io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, snippet(res.Body))
	}
	return res
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

// snippet flattens body for error messages, cut to maxErrorBody bytes on a
// rune boundary.
func snippet(body []byte) string {
	s := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
