package offering

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/pkg/async"
	"github.com/auxesispharma/emission/pkg/binder"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/session"
	"github.com/auxesispharma/emission/svc/delivery"
	"github.com/auxesispharma/emission/svc/document"
	"github.com/auxesispharma/emission/svc/metrics"
	"github.com/auxesispharma/emission/svc/submission"
)

// Dispatcher delivers accepted submissions. *delivery.Dispatcher implements
// it.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec *submission.Record, view []byte) delivery.Outcome
	SendDocument(ctx context.Context, rec *submission.Record, view []byte) delivery.Result
}

// Renderer produces the settlement note PDF for downloads.
type Renderer interface {
	Render(ctx context.Context, view []byte, rec *submission.Record) (*document.Document, error)
}

// SessionRenewer starts a fresh visitor session. *session.Manager
// implements it.
type SessionRenewer interface {
	Renew(w http.ResponseWriter) session.Session
}

type Views struct {
	// Subscription form
	FormPage func(FormParams) templ.Component
	Form     func(FormParams) templ.Component
	Total    func(TotalParams) templ.Component

	// Confirmation and settlement note
	ConfirmationPage func(ConfirmationParams) templ.Component
	Confirmation     func(ConfirmationParams) templ.Component
	DeliveryStatus   func(DeliveryStatusParams) templ.Component
	SettlementNote   func(NoteParams) templ.Component

	Toast       func(Notice) templ.Component
	PrivacyPage func(PrivacyParams) templ.Component
}

type Service struct {
	cfg          Config
	store        submission.Store
	dispatcher   Dispatcher
	renderer     Renderer
	sessions     SessionRenewer
	views        *Views
	errorHandler handler.ErrorHandler
	log          *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	inflight sync.WaitGroup
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithErrorHandler(h handler.ErrorHandler) Option {
	return func(s *Service) { s.errorHandler = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(
	cfg Config,
	store submission.Store,
	dispatcher Dispatcher,
	renderer Renderer,
	sessions SessionRenewer,
	views *Views,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:        cfg.withDefaults(),
		store:      store,
		dispatcher: dispatcher,
		renderer:   renderer,
		sessions:   sessions,
		views:      views,
		log:        logger.Noop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.log, handler.ErrorHandlerConfig{})
	}
	return s
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", handler.Wrap(s.index,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))
	r.Post("/subscribe", handler.Wrap(s.subscribe,
		handler.WithBinders[SubscribeRequest](
			binder.Form(), // HTML forms and datastar {contentType: 'form'}
			binder.JSON(),
		),
		handler.WithErrorHandler[SubscribeRequest](s.errorHandler),
	))
	r.Post("/subscribe/total", handler.Wrap(s.total,
		handler.WithBinders[TotalRequest](binder.Form()),
		handler.WithErrorHandler[TotalRequest](s.errorHandler),
	))

	r.Route("/confirmation", func(r chi.Router) {
		r.Get("/", handler.Wrap(s.confirmation, handler.WithErrorHandler[struct{}](s.errorHandler)))
		r.Get("/status", handler.Wrap(s.status, handler.WithErrorHandler[struct{}](s.errorHandler)))
		r.Post("/deliver", handler.Wrap(s.deliver, handler.WithErrorHandler[struct{}](s.errorHandler)))
		r.Get("/pdf", handler.Wrap(s.pdf, handler.WithErrorHandler[struct{}](s.errorHandler)))
	})

	r.Post("/restart", handler.Wrap(s.restart, handler.WithErrorHandler[struct{}](s.errorHandler)))
	r.Get("/privacy", handler.Wrap(s.privacy, handler.WithErrorHandler[struct{}](s.errorHandler)))

	return r
}

// Wait blocks until every background delivery started by the service
// finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) track(futures ...*async.Future[delivery.Result]) {
	for _, f := range futures {
		if f == nil {
			continue
		}
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			<-f.Done()
		}()
	}
}

// startDocument runs Channel B in the background for rec.
func (s *Service) startDocument(ctx context.Context, rec *submission.Record) {
	view := s.renderNote(ctx, rec)
	s.track(async.Go(context.WithoutCancel(ctx), func(ctx context.Context) (delivery.Result, error) {
		return s.dispatcher.SendDocument(ctx, rec, view), nil
	}))
}

func (s *Service) visitor(ctx context.Context) (session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok || sess.ID == "" {
		return session.Session{}, ErrNoSession
	}
	return sess, nil
}

// current returns the record of the visitor's session.
func (s *Service) current(ctx context.Context) (*submission.Record, error) {
	sess, err := s.visitor(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, sess.ID)
	switch {
	case errors.Is(err, submission.ErrNotFound):
		return nil, ErrNoSubmission
	case err != nil:
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return rec, nil
}

// renderNote paints the standalone settlement note for rec. A failure only
// leaves Channel B without a view, which it reports as not ready.
func (s *Service) renderNote(ctx context.Context, rec *submission.Record) []byte {
	var buf bytes.Buffer
	if err := s.views.SettlementNote(s.noteParams(ctx, rec)).Render(ctx, &buf); err != nil {
		s.log.ErrorContext(ctx, "failed to render settlement note",
			logger.Component("offering"),
			logger.SubmissionID(rec.ID),
			logger.Error(err),
		)
		return nil
	}
	return buf.Bytes()
}

func (s *Service) privacy(ctx handler.Context, _ struct{}) handler.Response {
	return handler.Templ(s.views.PrivacyPage(PrivacyParams{
		Controller: "Auxesis Pharma Holding AB (publ)",
		Contact:    s.cfg.Contact,
	}))
}
