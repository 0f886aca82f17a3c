package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxesispharma/emission/svc/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.IncSubmission(metrics.OutcomeAccepted)
	m.IncSubmission(metrics.OutcomeAccepted)
	m.IncSubmission(metrics.OutcomeInvalid)
	m.ObserveDelivery(metrics.ChannelDocument, metrics.OutcomeFailed, 120*time.Millisecond)
	m.IncMailRelay(metrics.OutcomeOK)
	m.ObserveRender(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryOutcome.WithLabelValues(metrics.ChannelDocument, metrics.OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DeliveryOutcome.WithLabelValues(metrics.ChannelData, metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailRelayOutcome.WithLabelValues(metrics.OutcomeOK)))
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncSubmission(metrics.OutcomeAccepted)
		m.ObserveDelivery(metrics.ChannelData, metrics.OutcomeOK, time.Second)
		m.ObserveRender(time.Second)
		m.IncMailRelay(metrics.OutcomeFailed)
	})
	assert.Nil(t, m.Registry())

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/confirmation/{part}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/metrics", m.Handler())

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/confirmation/pdf", nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `emission_http_request_duration_seconds_count{method="GET",route="/confirmation/{part}",status="202"} 3`)
	assert.Contains(t, string(body), "go_goroutines")
}
