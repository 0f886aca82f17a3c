package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/auxesispharma/emission/pkg/async"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/relay"
	"github.com/auxesispharma/emission/svc/document"
	"github.com/auxesispharma/emission/svc/metrics"
	"github.com/auxesispharma/emission/svc/submission"
)

// Relay posts payloads to external endpoints. *relay.Client implements it.
type Relay interface {
	PostJSON(ctx context.Context, endpoint string, data any, opts ...relay.Option) relay.Result
	PostMultipart(ctx context.Context, endpoint string, parts []relay.Part, opts ...relay.Option) relay.Result
}

// Renderer produces the settlement note PDF. *document.Renderer implements
// it.
type Renderer interface {
	Render(ctx context.Context, view []byte, rec *submission.Record) (*document.Document, error)
}

type Dispatcher struct {
	cfg      Config
	store    submission.Store
	renderer Renderer
	relay    Relay
	log      *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Dispatcher)

func WithRelay(r Relay) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.relay = r
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func New(cfg Config, store submission.Store, renderer Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg.withDefaults(),
		store:    store,
		renderer: renderer,
		relay:    relay.New(),
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts both channels for rec. view is the settlement note HTML
// for Channel B. The returned futures resolve independently.
//
// Channel B starts once Channel A has finished, or after DataRelayWait when
// Channel A is slow. Channel A's result never affects Channel B.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *submission.Record, view []byte) Outcome {
	ctx = context.WithoutCancel(ctx)
	data := async.Go(ctx, func(ctx context.Context) (Result, error) {
		return d.SendData(ctx, rec), nil
	})
	return Outcome{
		Data: data,
		Document: async.Go(ctx, func(ctx context.Context) (Result, error) {
			_, _ = data.AwaitTimeout(d.cfg.DataRelayWait)
			return d.SendDocument(ctx, rec, view), nil
		}),
		dataWait: d.cfg.DataRelayWait,
	}
}

// SendData is Channel A: one JSON POST of the form fields to the form relay.
func (d *Dispatcher) SendData(ctx context.Context, rec *submission.Record) Result {
	res := Result{Channel: ChannelData}
	if rec == nil {
		res.Status = StatusNotReady
		return res
	}

	ctx, cancel := d.detach(ctx)
	defer cancel()

	rr := d.relay.PostJSON(ctx, d.cfg.FormRelayURL, rec.Request.Payload(d.cfg.FormName),
		relay.WithTimeout(d.cfg.Timeout))
	res.StatusCode = rr.StatusCode
	res.Duration = rr.Duration
	if rr.OK() {
		res.Status = StatusOK
	} else {
		res.Status = StatusFailed
		res.Notice = NoticeDataFailed
		res.Err = rr.Err
		if res.Err == nil {
			res.Err = relay.ErrRejected
		}
	}

	d.report(ctx, rec, res)
	return res
}

// SendDocument is Channel B: render the note and post it to the mail relay.
// It only runs when the record's delivery state admits EventStart.
func (d *Dispatcher) SendDocument(ctx context.Context, rec *submission.Record, view []byte) Result {
	res := Result{Channel: ChannelDocument}
	if rec == nil {
		res.Status = StatusNotReady
		return res
	}

	ctx, cancel := d.detach(ctx)
	defer cancel()
	start := time.Now()

	current, err := d.store.Fire(ctx, rec.SessionID, submission.EventStart, "")
	switch {
	case errors.Is(err, submission.ErrTransitionRejected):
		res.Status = StatusSkipped
		d.report(ctx, rec, res)
		return res
	case errors.Is(err, submission.ErrNotFound):
		res.Status = StatusNotReady
		return res
	case err != nil:
		res.Status = StatusFailed
		res.Notice = NoticeDocumentFailed
		res.Err = err
		d.report(ctx, rec, res)
		return res
	}

	renderStart := time.Now()
	doc, err := d.renderer.Render(ctx, view, current)
	d.metrics.ObserveRender(time.Since(renderStart))
	if err != nil {
		res.Duration = time.Since(start)
		if errors.Is(err, document.ErrNotReady) {
			d.fire(ctx, rec, submission.EventNotReady, "")
			res.Status = StatusNotReady
			d.report(ctx, rec, res)
			return res
		}
		d.fire(ctx, rec, submission.EventFail, err.Error())
		res.Status = StatusFailed
		res.Notice = NoticeRenderFailed
		res.Err = err
		d.report(ctx, rec, res)
		return res
	}
	res.Filename = doc.Filename
	d.fire(ctx, rec, submission.EventRendered, "")

	meta, err := json.Marshal(current.Request.Payload(d.cfg.FormName))
	if err != nil {
		d.fire(ctx, rec, submission.EventFail, err.Error())
		res.Status = StatusFailed
		res.Notice = NoticeDocumentFailed
		res.Err = err
		d.report(ctx, rec, res)
		return res
	}

	rr := d.relay.PostMultipart(ctx, d.cfg.MailRelayURL, []relay.Part{
		{Name: "pdf", Filename: doc.Filename, ContentType: "application/pdf", Content: doc.Content},
		{Name: "meta", Content: meta},
	}, relay.WithTimeout(d.cfg.Timeout))
	res.StatusCode = rr.StatusCode
	res.Duration = time.Since(start)

	if !rr.OK() {
		if rr.Err == nil {
			rr.Err = relay.ErrRejected
		}
		d.fire(ctx, rec, submission.EventFail, rr.Err.Error())
		res.Status = StatusFailed
		res.Notice = NoticeDocumentFailed
		res.Err = rr.Err
		d.report(ctx, rec, res)
		return res
	}

	d.fire(ctx, rec, submission.EventDelivered, "")
	res.Status = StatusOK
	d.report(ctx, rec, res)
	return res
}

func (d *Dispatcher) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
}

// fire applies a follow-up transition after a successful start. Failures
// are logged only: the attempt already owns the record.
func (d *Dispatcher) fire(ctx context.Context, rec *submission.Record, ev submission.Event, detail string) {
	if _, err := d.store.Fire(ctx, rec.SessionID, ev, detail); err != nil {
		d.log.ErrorContext(ctx, "failed to record delivery state",
			logger.Component("delivery"),
			logger.Event(string(ev)),
			logger.SubmissionID(rec.ID),
			logger.Error(err),
		)
	}
}

func (d *Dispatcher) report(ctx context.Context, rec *submission.Record, res Result) {
	outcome := metrics.OutcomeOK
	switch res.Status {
	case StatusFailed:
		outcome = metrics.OutcomeFailed
	case StatusNotReady:
		outcome = metrics.OutcomeNotReady
	case StatusSkipped:
		outcome = metrics.OutcomeRejected
	}
	d.metrics.ObserveDelivery(res.Channel, outcome, res.Duration)

	attrs := []slog.Attr{
		logger.Component("delivery"),
		logger.Channel(res.Channel),
		logger.SubmissionID(rec.ID),
		slog.String("status", string(res.Status)),
		logger.Duration(res.Duration),
	}
	if res.StatusCode != 0 {
		attrs = append(attrs, logger.StatusCode(res.StatusCode))
	}
	if res.Filename != "" {
		attrs = append(attrs, slog.String("filename", res.Filename))
	}

	switch res.Status {
	case StatusFailed:
		attrs = append(attrs, logger.Error(res.Err))
		d.log.LogAttrs(ctx, slog.LevelError, "delivery failed", attrs...)
	case StatusSkipped:
		d.log.LogAttrs(ctx, slog.LevelDebug, "delivery skipped", attrs...)
	default:
		d.log.LogAttrs(ctx, slog.LevelInfo, "delivery finished", attrs...)
	}
}
