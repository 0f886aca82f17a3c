package mailrelay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/pkg/binder"
	"github.com/auxesispharma/emission/pkg/email"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/svc/metrics"
)

var (
	ErrMissingDocument = handler.NewHTTPError(http.StatusBadRequest, "missing_document").WithText("Ingen PDF mottagen")
	ErrInvalidMeta     = handler.NewHTTPError(http.StatusBadRequest, "invalid_meta").WithText("Ogiltig metadata")
	ErrMailProvider    = errors.New("mail provider error")
)

// Upload is a received settlement note.
type Upload struct {
	Filename string
	Content  []byte
	Meta     Meta
}

type Service struct {
	cfg     Config
	sender  email.Sender
	log     *slog.Logger
	metrics *metrics.Metrics
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

func New(cfg Config, sender email.Sender, opts ...Option) *Service {
	if cfg.DefaultFilename == "" {
		cfg.DefaultFilename = "Teckningsanmalan.pdf"
	}
	s := &Service{cfg: cfg, sender: sender, log: logger.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Message builds the notification email for u.
func (s *Service) Message(u Upload) email.Message {
	name := strings.TrimSpace(string(u.Meta.Name))
	if name == "" {
		name = "okänd köpare"
	}
	subject := fmt.Sprintf("Teckningsanmälan – %s – %s B-aktier", name, strings.TrimSpace(string(u.Meta.Shares)))

	replyTo := s.cfg.Recipient
	if addr := strings.TrimSpace(string(u.Meta.Email)); addr != "" {
		if parsed, err := mail.ParseAddress(addr); err == nil && parsed.Name == "" {
			replyTo = parsed.Address
		}
	}

	var body strings.Builder
	body.WriteString("En ny teckningsanmälan har skickats in via webbformuläret.\n\n")
	fmt.Fprintf(&body, "Namn: %s\n", orDash(u.Meta.Name))
	fmt.Fprintf(&body, "Personnr/Org.nr: %s\n", orDash(u.Meta.PersonalNumber))
	fmt.Fprintf(&body, "E-post: %s\n", orDash(u.Meta.Email))
	fmt.Fprintf(&body, "Telefon: %s\n", orDash(u.Meta.Phone))
	fmt.Fprintf(&body, "Antal B-aktier: %s\n", orDash(u.Meta.Shares))
	fmt.Fprintf(&body, "Totalbelopp: %s SEK\n", orDash(u.Meta.TotalAmount))

	filename := u.Filename
	if filename == "" {
		filename = s.cfg.DefaultFilename
	}

	return email.Message{
		To:       s.cfg.Recipient,
		ReplyTo:  replyTo,
		Subject:  subject,
		TextBody: body.String(),
		Tag:      "subscription",
		Attachments: []email.Attachment{{
			Filename:    filename,
			ContentType: "application/pdf",
			Content:     u.Content,
		}},
	}
}

// Forward emails u to the recipient.
func (s *Service) Forward(ctx context.Context, u Upload) error {
	if len(u.Content) == 0 {
		return ErrMissingDocument
	}
	if err := s.sender.Send(ctx, s.Message(u)); err != nil {
		return errors.Join(ErrMailProvider, err)
	}
	return nil
}

type sendRequest struct {
	PDF  *multipart.FileHeader `file:"pdf"`
	Meta string                `form:"meta"`
}

// Handler serves POST /api/send-pdf.
func (s *Service) Handler() http.HandlerFunc {
	return handler.Wrap(
		handler.HandlerFunc[sendRequest](s.send),
		handler.WithBinders[sendRequest](binder.Form()),
		handler.WithErrorHandler[sendRequest](s.handleError),
	)
}

func (s *Service) send(ctx handler.Context, req sendRequest) handler.Response {
	if req.PDF == nil {
		s.metrics.IncMailRelay(metrics.OutcomeInvalid)
		return handler.JSONError(ErrMissingDocument)
	}

	meta, err := ParseMeta(req.Meta)
	if err != nil {
		s.metrics.IncMailRelay(metrics.OutcomeInvalid)
		s.log.WarnContext(ctx, "invalid meta", logger.Component("mailrelay"), logger.Error(err))
		return handler.JSONError(ErrInvalidMeta)
	}

	content, err := readFile(req.PDF)
	if err != nil {
		s.metrics.IncMailRelay(metrics.OutcomeInvalid)
		return handler.JSONError(ErrMissingDocument)
	}

	if err := s.Forward(ctx, Upload{Filename: req.PDF.Filename, Content: content, Meta: meta}); err != nil {
		if errors.Is(err, ErrMissingDocument) {
			s.metrics.IncMailRelay(metrics.OutcomeInvalid)
			return handler.JSONError(ErrMissingDocument)
		}
		s.metrics.IncMailRelay(metrics.OutcomeFailed)
		s.log.ErrorContext(ctx, "failed to forward subscription document",
			logger.Component("mailrelay"),
			logger.Error(err),
		)
		return handler.JSONError(&handler.ErrorDetail{Code: "mail_provider_error", Message: providerMessage(err)})
	}

	s.metrics.IncMailRelay(metrics.OutcomeOK)
	s.log.InfoContext(ctx, "subscription document forwarded",
		logger.Component("mailrelay"),
		slog.String("filename", req.PDF.Filename),
		slog.Int("size", len(content)),
	)
	return handler.JSON(map[string]bool{"ok": true})
}

func (s *Service) handleError(ctx handler.Context, err error) {
	if errors.Is(err, handler.ErrBadRequest) {
		s.metrics.IncMailRelay(metrics.OutcomeInvalid)
		s.log.WarnContext(ctx, "malformed mail relay request", logger.Component("mailrelay"), logger.Error(err))
	} else {
		s.metrics.IncMailRelay(metrics.OutcomeFailed)
		s.log.ErrorContext(ctx, "mail relay request failed", logger.Component("mailrelay"), logger.Error(err))
	}
	if renderErr := handler.JSONError(err).Render(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
		s.log.ErrorContext(ctx, "failed to write error response", logger.Error(renderErr))
	}
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// providerMessage strips the relay and sender sentinels from err and keeps
// the provider's text whole, line breaks included.
func providerMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrMailProvider, email.ErrSendFailed} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+"\n")
	}
	return msg
}
