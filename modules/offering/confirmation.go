package offering

import (
	"context"
	"errors"
	"net/http"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/qrcode"
	"github.com/auxesispharma/emission/svc/delivery"
	"github.com/auxesispharma/emission/svc/submission"
	"github.com/auxesispharma/emission/svc/subscription"
)

const timestampLayout = "2006-01-02 15:04"

func (s *Service) noteParams(ctx context.Context, rec *submission.Record) NoteParams {
	p := NoteParams{
		SubmissionID: rec.ID.String(),
		Request:      rec.Request,
		Shares:       subscription.FormatShares(rec.Request.Shares),
		UnitPrice:    subscription.FormatSEK(subscription.UnitPrice),
		Total:        subscription.FormatSEK(rec.Total()),
		SubmittedAt:  rec.SubmittedAt.Local().Format(timestampLayout),
		WebsiteURL:   s.cfg.WebsiteURL,
	}
	qr, err := qrcode.DataURI(s.cfg.WebsiteURL, s.cfg.QRSize)
	if err != nil {
		s.log.WarnContext(ctx, "failed to generate website qr code",
			logger.Component("offering"),
			logger.Error(err),
		)
		return p
	}
	p.QRCode = qr
	return p
}

func pendingStatus() DeliveryStatusParams {
	return DeliveryStatusParams{State: submission.StateRendering, Pending: true}
}

func statusParams(rec *submission.Record) DeliveryStatusParams {
	p := DeliveryStatusParams{
		State:     rec.State,
		Delivered: rec.Delivered(),
		Pending:   rec.State.InProgress(),
		CanRetry:  submission.CanFire(rec.State, submission.EventStart),
	}
	if rec.State == submission.StateFailed {
		p.Notice = delivery.NoticeDocumentFailed
	}
	return p
}

func (s *Service) confirmation(ctx handler.Context, _ struct{}) handler.Response {
	rec, err := s.current(ctx)
	switch {
	case errors.Is(err, ErrNoSubmission):
		return handler.Redirect("/")
	case err != nil:
		return handler.Error(err)
	}

	status := statusParams(rec)
	// A note that was never rendered, e.g. because the view was not ready on
	// submit, is sent as soon as the confirmation is shown again. Failed
	// deliveries wait for an explicit retry.
	if rec.State == submission.StateIdle {
		s.startDocument(ctx, rec)
		status = pendingStatus()
	}

	params := ConfirmationParams{
		Note:   s.noteParams(ctx, rec),
		Status: status,
	}
	return handler.TemplPartial(
		s.views.Confirmation(params),
		s.views.ConfirmationPage(params),
		handler.WithTarget("#app"),
	)
}

func (s *Service) status(ctx handler.Context, _ struct{}) handler.Response {
	rec, err := s.current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	status := statusParams(rec)

	if !handler.IsDataStar(ctx.Request()) {
		return handler.JSON(map[string]any{
			"state":     status.State,
			"delivered": status.Delivered,
			"pending":   status.Pending,
			"canRetry":  status.CanRetry,
			"notice":    status.Notice,
		})
	}

	patches := []handler.TemplPatch{handler.Patch(s.views.DeliveryStatus(status))}
	if status.Notice != "" {
		patches = append(patches, handler.Patch(
			s.views.Toast(Notice{Level: LevelWarning, Message: status.Notice}),
			handler.WithTarget("#toasts"),
			handler.WithPatchMode(handler.PatchAppend),
		))
	}
	return handler.TemplMulti(patches...)
}

func (s *Service) deliver(ctx handler.Context, _ struct{}) handler.Response {
	rec, err := s.current(ctx)
	if err != nil {
		return handler.Error(err)
	}

	status := statusParams(rec)
	if submission.CanFire(rec.State, submission.EventStart) {
		s.log.InfoContext(ctx, "manual document delivery requested",
			logger.Component("offering"),
			logger.SubmissionID(rec.ID),
			logger.Event(string(submission.EventStart)),
		)
		s.startDocument(ctx, rec)
		status = pendingStatus()
	}

	switch {
	case handler.IsDataStar(ctx.Request()):
		return handler.Templ(s.views.DeliveryStatus(status))
	case handler.WantsJSON(ctx.Request()):
		return handler.JSON(map[string]any{
			"state":   status.State,
			"pending": status.Pending,
		}, handler.WithJSONStatus(http.StatusAccepted))
	default:
		return handler.Redirect("/confirmation")
	}
}

func (s *Service) pdf(ctx handler.Context, _ struct{}) handler.Response {
	rec, err := s.current(ctx)
	if err != nil {
		return handler.Error(err)
	}

	doc, err := s.renderer.Render(ctx, s.renderNote(ctx, rec), rec)
	if err != nil {
		return handler.Error(errors.Join(ErrRenderFailed, err))
	}
	return handler.Attachment(doc.Filename, "application/pdf", doc.Content)
}

func (s *Service) restart(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := s.visitor(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, submission.ErrNotFound) {
		return handler.Error(errors.Join(ErrStoreUnavailable, err))
	}
	s.sessions.Renew(ctx.ResponseWriter())
	return handler.Redirect("/")
}
