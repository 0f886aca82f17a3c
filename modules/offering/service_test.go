package offering_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/modules/offering"
	"github.com/auxesispharma/emission/pkg/session"
	"github.com/auxesispharma/emission/svc/delivery"
	"github.com/auxesispharma/emission/svc/document"
	"github.com/auxesispharma/emission/svc/metrics"
	"github.com/auxesispharma/emission/svc/submission"
	"github.com/auxesispharma/emission/web/views"
)

const (
	renderOK int32 = iota
	renderNotReady
	renderFail
)

type renderer struct {
	mode  atomic.Int32
	calls atomic.Int32
}

func (r *renderer) Render(ctx context.Context, view []byte, rec *submission.Record) (*document.Document, error) {
	r.calls.Add(1)
	switch r.mode.Load() {
	case renderNotReady:
		return nil, document.ErrNotReady
	case renderFail:
		return nil, errors.Join(document.ErrRasterize, errors.New("chrome crashed"))
	}
	if len(view) == 0 {
		return nil, document.ErrNotReady
	}
	return &document.Document{
		Filename:  document.Filename(rec.Request.PersonalNumber),
		Content:   []byte("%PDF-1.4 test"),
		PageCount: 1,
	}, nil
}

// relays stands in for both the form relay and the mail relay.
type relays struct {
	formStatus atomic.Int32
	mailStatus atomic.Int32

	mu    sync.Mutex
	forms []map[string]any
	mails int
}

func (rl *relays) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	switch r.URL.Path {
	case "/form":
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		rl.forms = append(rl.forms, payload)
		w.WriteHeader(int(rl.formStatus.Load()))
	case "/mail":
		rl.mails++
		w.WriteHeader(int(rl.mailStatus.Load()))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (rl *relays) counts() (forms, mails int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.forms), rl.mails
}

type harness struct {
	t        *testing.T
	srv      *httptest.Server
	client   *http.Client
	svc      *offering.Service
	store    *submission.MemoryStore
	relays   *relays
	renderer *renderer
	metrics  *metrics.Metrics
}

var today = time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	rl := &relays{}
	rl.formStatus.Store(http.StatusOK)
	rl.mailStatus.Store(http.StatusOK)
	relaySrv := httptest.NewServer(rl)
	t.Cleanup(relaySrv.Close)

	store := submission.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	rnd := &renderer{}
	m := metrics.New()
	dispatcher := delivery.New(delivery.Config{
		FormRelayURL:  relaySrv.URL + "/form",
		MailRelayURL:  relaySrv.URL + "/mail",
		Timeout:       5 * time.Second,
		DataRelayWait: 2 * time.Second,
	}, store, rnd, delivery.WithMetrics(m))

	sessions, err := session.NewManager(session.Config{
		Secrets: []string{strings.Repeat("s", 32)},
		TTL:     time.Hour,
	})
	require.NoError(t, err)

	v, err := views.New()
	require.NoError(t, err)

	svc := offering.NewService(offering.Config{}, store, dispatcher, rnd, sessions, v.Offering(),
		offering.WithMetrics(m),
		offering.WithClock(func() time.Time { return today }),
	)

	r := chi.NewRouter()
	r.Mount("/", offering.Router(offering.RouterOptions{
		Offering: svc,
		MailRelay: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		Sessions: sessions.Middleware,
	}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	h := &harness{t: t, srv: srv, client: client, svc: svc, store: store, relays: rl, renderer: rnd, metrics: m}
	t.Cleanup(func() { h.wait() })
	return h
}

func (h *harness) wait() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.svc.Wait(ctx))
}

func (h *harness) do(method, path string, body io.Reader, headers map[string]string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(h.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(b)
}

func (h *harness) get(path string, headers ...map[string]string) (*http.Response, string) {
	h.t.Helper()
	var hdr map[string]string
	if len(headers) > 0 {
		hdr = headers[0]
	}
	return h.do(http.MethodGet, path, nil, hdr)
}

func (h *harness) postForm(path string, values url.Values) (*http.Response, string) {
	h.t.Helper()
	return h.do(http.MethodPost, path, strings.NewReader(values.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
}

func (h *harness) status() map[string]any {
	h.t.Helper()
	resp, body := h.get("/confirmation/status", map[string]string{"Accept": "application/json"})
	require.Equal(h.t, http.StatusOK, resp.StatusCode, body)
	var out struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(body), &out))
	return out.Data
}

func validForm() url.Values {
	return url.Values{
		"shares":          {"1000"},
		"personalNumber":  {"19800101-1234"},
		"name":            {"Anna Andersson"},
		"address":         {"Storgatan 1"},
		"postalCode":      {"111 22"},
		"city":            {"Stockholm"},
		"email":           {"anna@example.se"},
		"phone":           {"0701234567"},
		"accountNumber":   {"1234-567890"},
		"bankInstitution": {"SEB"},
		"signatureCity":   {"Stockholm"},
		"signatureDate":   {"2025-11-20"},
		"signatureName":   {"Anna Andersson"},
		"gdprConsent":     {"true"},
		"acceptance":      {"true"},
	}
}

func TestIndex_ShowsForm(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, body := h.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Teckningsanmälan Emission")
	assert.Contains(t, body, `value="2025-11-20"`)
	assert.NotEmpty(t, resp.Cookies(), "session cookie is issued on first visit")
}

func TestSubscribe_InvalidForm(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	form := validForm()
	form.Set("shares", "300001")
	form.Del("acceptance")

	resp, body := h.postForm("/subscribe", form)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Max 300 000 aktier tillgängliga i denna emission")
	assert.Contains(t, body, "Du måste godkänna villkoren för att gå vidare")
	assert.Contains(t, body, `value="Anna Andersson"`, "entered values are kept")
	assert.Equal(t, 0, h.store.Len())

	forms, mails := h.relays.counts()
	assert.Zero(t, forms)
	assert.Zero(t, mails)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(metrics.OutcomeInvalid)))
}

func TestSubscribe_Accepted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, body := h.postForm("/subscribe", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, delivery.NoticeReceived)
	assert.Contains(t, body, "Tack för din anmälan!")
	assert.Contains(t, body, `id="settlement-note"`)
	assert.NotContains(t, body, delivery.NoticeDataFailed)

	h.wait()
	forms, mails := h.relays.counts()
	assert.Equal(t, 1, forms)
	assert.Equal(t, 1, mails)
	assert.Equal(t, true, h.status()["delivered"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted)))

	h.relays.mu.Lock()
	assert.Equal(t, "1000", h.relays.forms[0]["shares"])
	assert.EqualValues(t, 82000, h.relays.forms[0]["totalAmount"])
	h.relays.mu.Unlock()

	t.Run("index redirects to confirmation", func(t *testing.T) {
		resp, _ := h.get("/")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/confirmation", resp.Header.Get("Location"))
	})

	t.Run("second submit is not sent again", func(t *testing.T) {
		resp, _ := h.postForm("/subscribe", validForm())
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		h.wait()
		forms, mails := h.relays.counts()
		assert.Equal(t, 1, forms)
		assert.Equal(t, 1, mails)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(metrics.OutcomeDuplicate)))
	})

	t.Run("confirmation does not resend a delivered note", func(t *testing.T) {
		resp, body := h.get("/confirmation")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Anna Andersson")
		h.wait()
		_, mails := h.relays.counts()
		assert.Equal(t, 1, mails)
	})
}

func TestSubscribe_JSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	headers := map[string]string{"Content-Type": "application/json", "Accept": "application/json"}

	resp, body := h.do(http.MethodPost, "/subscribe", strings.NewReader(`{"shares":"abc"}`), headers)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, `"validation_error"`)
	assert.Contains(t, body, "Ange ett giltigt antal aktier")

	payload := map[string]any{}
	for k, v := range validForm() {
		payload[k] = v[0]
	}
	payload["gdprConsent"] = true
	payload["acceptance"] = true
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, body = h.do(http.MethodPost, "/subscribe", strings.NewReader(string(raw)), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var out struct {
		Data struct {
			ID          string   `json:"id"`
			Shares      int64    `json:"shares"`
			TotalAmount string   `json:"totalAmount"`
			Notices     []string `json:"notices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.NotEmpty(t, out.Data.ID)
	assert.Equal(t, int64(1000), out.Data.Shares)
	assert.Equal(t, "82000", out.Data.TotalAmount)
	assert.Equal(t, []string{delivery.NoticeReceived}, out.Data.Notices)

	resp, body = h.do(http.MethodPost, "/subscribe", strings.NewReader(string(raw)), headers)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "redan inskickad")
}

func TestSubscribe_DataRelayFailureIsSoft(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.relays.formStatus.Store(http.StatusInternalServerError)

	resp, body := h.postForm("/subscribe", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, delivery.NoticeReceived)
	assert.Contains(t, body, delivery.NoticeDataFailed)

	h.wait()
	assert.Equal(t, true, h.status()["delivered"], "the document channel is independent")
}

func TestDocumentDelivery_FailureAndManualRetry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.relays.mailStatus.Store(http.StatusBadGateway)

	resp, _ := h.postForm("/subscribe", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h.wait()

	st := h.status()
	assert.Equal(t, string(submission.StateFailed), st["state"])
	assert.Equal(t, true, st["canRetry"])
	assert.Equal(t, delivery.NoticeDocumentFailed, st["notice"])

	t.Run("datastar status patches a toast", func(t *testing.T) {
		resp, body := h.get("/confirmation/status", map[string]string{"Datastar-Request": "true"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "datastar-patch-elements")
		assert.Contains(t, body, "#toasts")
		assert.Contains(t, body, "kunde inte skickas automatiskt")
	})

	t.Run("confirmation page does not retry on its own", func(t *testing.T) {
		h.get("/confirmation")
		h.wait()
		_, mails := h.relays.counts()
		assert.Equal(t, 1, mails)
	})

	h.relays.mailStatus.Store(http.StatusOK)
	resp, body := h.do(http.MethodPost, "/confirmation/deliver", nil, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	h.wait()

	_, mails := h.relays.counts()
	assert.Equal(t, 2, mails)
	assert.Equal(t, string(submission.StateDelivered), h.status()["state"])

	resp, _ = h.do(http.MethodPost, "/confirmation/deliver", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	h.wait()
	_, mails = h.relays.counts()
	assert.Equal(t, 2, mails, "a delivered note is never sent twice")
}

func TestConfirmation_RetriggersIdleDocument(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.renderer.mode.Store(renderNotReady)

	resp, _ := h.postForm("/subscribe", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h.wait()
	assert.Equal(t, string(submission.StateIdle), h.status()["state"])
	_, mails := h.relays.counts()
	assert.Zero(t, mails)

	h.renderer.mode.Store(renderOK)
	resp, _ = h.get("/confirmation")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	h.wait()

	_, mails = h.relays.counts()
	assert.Equal(t, 1, mails)
	assert.Equal(t, string(submission.StateDelivered), h.status()["state"])
}

func TestTotal(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	t.Run("datastar string signal", func(t *testing.T) {
		resp, body := h.do(http.MethodPost, "/subscribe/total", strings.NewReader(`{"shares":"1000"}`), map[string]string{
			"Content-Type":     "application/json",
			"Datastar-Request": "true",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "datastar-patch-elements")
		assert.Contains(t, body, `id="total"`)
		assert.Contains(t, body, "82")
		assert.Contains(t, body, "000 SEK")
	})

	t.Run("datastar numeric signal", func(t *testing.T) {
		_, body := h.do(http.MethodPost, "/subscribe/total", strings.NewReader(`{"shares":10}`), map[string]string{
			"Content-Type":     "application/json",
			"Datastar-Request": "true",
		})
		assert.Contains(t, body, ">820 SEK<")
	})

	t.Run("plain form", func(t *testing.T) {
		resp, body := h.postForm("/subscribe/total", url.Values{"shares": {"-5"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, ">0 SEK<")
	})
}

func TestPDF(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, _ := h.get("/confirmation/pdf")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.postForm("/subscribe", validForm())
	h.wait()

	resp, body := h.get("/confirmation/pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Teckningsanmalan_198001011234.pdf")
	assert.Equal(t, "%PDF-1.4 test", body)

	h.renderer.mode.Store(renderFail)
	resp, body = h.get("/confirmation/pdf")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Kunde inte generera PDF.")
}

func TestRestart(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.postForm("/subscribe", validForm())
	h.wait()
	require.Equal(t, 1, h.store.Len())

	resp, _ := h.do(http.MethodPost, "/restart", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Zero(t, h.store.Len())

	resp, body := h.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="subscription-form"`)
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, _ := h.get("/confirmation")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := h.get("/privacy")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Integritetspolicy")

	resp, _ = h.do(http.MethodPost, "/api/send-pdf", nil, nil)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	resp, body = h.get("/confirmation/status", map[string]string{"Accept": "application/json"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "not_found")
}

func TestRouter_MailRelayHasNoSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, err := http.Post(h.srv.URL+"/api/send-pdf", "multipart/form-data; boundary=x", strings.NewReader(""))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	resp, err = http.Get(h.srv.URL + "/privacy")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
}

func TestMissingSession(t *testing.T) {
	t.Parallel()

	var handled error
	svc := offering.NewService(offering.Config{}, submission.NewMemoryStore(0), nil, nil, nil, nil,
		offering.WithErrorHandler(func(ctx handler.Context, err error) {
			handled = err
			w := ctx.ResponseWriter()
			w.WriteHeader(http.StatusInternalServerError)
		}),
	)

	rec := httptest.NewRecorder()
	svc.Handle().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/restart", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.ErrorIs(t, handled, offering.ErrNoSession)
}
