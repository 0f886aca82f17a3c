// Package metrics holds the Prometheus instruments of the emission service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Channel labels.
const (
	ChannelData     = "data"
	ChannelDocument = "document"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeNotReady  = "not_ready"
	OutcomeRejected  = "rejected"
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
)

// Metrics provides observability for the subscription pipeline. All methods
// are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	Submissions      *prometheus.CounterVec
	DeliveryOutcome  *prometheus.CounterVec
	DeliveryLatency  *prometheus.HistogramVec
	RenderLatency    prometheus.Histogram
	MailRelayOutcome *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all instruments, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "emission_submissions_total",
			Help: "Subscription form posts by outcome",
		}, []string{"outcome"}), // accepted, invalid, duplicate

		DeliveryOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "emission_delivery_outcomes_total",
			Help: "Delivery attempts by channel and outcome",
		}, []string{"channel", "outcome"}),

		DeliveryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emission_delivery_duration_seconds",
			Help:    "Duration of delivery attempts by channel",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"channel"}),

		RenderLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "emission_document_render_duration_seconds",
			Help:    "Duration of settlement note rendering including rasterization",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),

		MailRelayOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "emission_mail_relay_requests_total",
			Help: "Mail relay endpoint requests by outcome",
		}, []string{"outcome"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emission_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// ObserveDelivery records one delivery attempt on channel.
func (m *Metrics) ObserveDelivery(channel, outcome string, d time.Duration) {
	if m != nil {
		m.DeliveryOutcome.WithLabelValues(channel, outcome).Inc()
		m.DeliveryLatency.WithLabelValues(channel).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m != nil {
		m.RenderLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncMailRelay(outcome string) {
	if m != nil {
		m.MailRelayOutcome.WithLabelValues(outcome).Inc()
	}
}

// Middleware records request durations labelled by chi route pattern, so
// the label set stays bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
