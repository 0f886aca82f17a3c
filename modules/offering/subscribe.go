package offering

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/validator"
	"github.com/auxesispharma/emission/svc/delivery"
	"github.com/auxesispharma/emission/svc/metrics"
	"github.com/auxesispharma/emission/svc/submission"
	"github.com/auxesispharma/emission/svc/subscription"
)

// SubscribeRequest is the posted subscription form.
type SubscribeRequest = subscription.Form

// TotalRequest carries the shares input for the live total.
type TotalRequest struct {
	Shares string `form:"shares"`
}

func (s *Service) offering() Offering {
	return Offering{
		UnitPrice: subscription.FormatSEK(subscription.UnitPrice),
		Cap:       subscription.FormatShares(subscription.OfferingCap),
		Currency:  subscription.Currency,
	}
}

func (s *Service) formParams(form subscription.Form, errs validator.ValidationErrors) FormParams {
	return FormParams{
		Form:     form,
		Errors:   errs,
		Total:    subscription.FormatSEK(subscription.LiveTotal(form.Shares)),
		Offering: s.offering(),
	}
}

func (s *Service) index(ctx handler.Context, _ struct{}) handler.Response {
	_, err := s.current(ctx)
	switch {
	case err == nil:
		return handler.Redirect("/confirmation")
	case !errors.Is(err, ErrNoSubmission):
		return handler.Error(err)
	}

	form := subscription.Form{SignatureDate: s.now().Format("2006-01-02")}
	return handler.Templ(s.views.FormPage(s.formParams(form, nil)))
}

func (s *Service) subscribe(ctx handler.Context, req SubscribeRequest) handler.Response {
	r := ctx.Request()
	sess, err := s.visitor(ctx)
	if err != nil {
		return handler.Error(err)
	}

	accepted, err := subscription.Validate(req)
	if err != nil {
		errs := validator.ExtractValidationErrors(err)
		if errs == nil {
			return handler.Error(err)
		}
		s.metrics.IncSubmission(metrics.OutcomeInvalid)

		if handler.WantsJSON(r) {
			return handler.JSONError(handler.ValidationError(errs.Map()))
		}
		params := s.formParams(req, errs)
		if handler.IsDataStar(r) {
			return handler.Templ(s.views.Form(params), handler.WithTarget("#app"))
		}
		return handler.TemplStatus(http.StatusUnprocessableEntity, s.views.FormPage(params))
	}

	now := s.now()
	rec := submission.NewRecord(sess.ID, accepted, now, sess.TTL(now))
	if err := s.store.Save(ctx, rec); err != nil {
		if errors.Is(err, submission.ErrAlreadySubmitted) {
			s.metrics.IncSubmission(metrics.OutcomeDuplicate)
			if handler.WantsJSON(r) {
				return handler.JSONError(ErrAlreadySubmitted)
			}
			return handler.Redirect("/confirmation")
		}
		return handler.Error(errors.Join(ErrStoreUnavailable, err))
	}
	s.metrics.IncSubmission(metrics.OutcomeAccepted)
	s.log.InfoContext(ctx, "subscription accepted",
		logger.Component("offering"),
		logger.SubmissionID(rec.ID),
		slog.Int64("shares", accepted.Shares),
	)

	outcome := s.dispatcher.Dispatch(ctx, rec, s.renderNote(ctx, rec))
	s.track(outcome.Data, outcome.Document)

	notices := []Notice{{Level: LevelSuccess, Message: delivery.NoticeReceived}}
	if res, done := outcome.AwaitData(ctx); done && !res.OK() {
		notices = append(notices, Notice{Level: LevelWarning, Message: res.Notice})
	}

	if handler.WantsJSON(r) {
		messages := make([]string, 0, len(notices))
		for _, n := range notices {
			messages = append(messages, n.Message)
		}
		return handler.JSON(map[string]any{
			"id":          rec.ID.String(),
			"shares":      accepted.Shares,
			"totalAmount": accepted.Total().String(),
			"notices":     messages,
		}, handler.WithJSONStatus(http.StatusCreated))
	}

	params := ConfirmationParams{
		Note:    s.noteParams(ctx, rec),
		Status:  pendingStatus(),
		Notices: notices,
	}
	return handler.TemplPartial(
		s.views.Confirmation(params),
		s.views.ConfirmationPage(params),
		handler.WithTarget("#app"),
	)
}

func (s *Service) total(ctx handler.Context, req TotalRequest) handler.Response {
	raw := req.Shares
	if handler.IsDataStar(ctx.Request()) {
		var signals struct {
			Shares any `json:"shares"`
		}
		if err := handler.ReadSignals(ctx.Request(), &signals); err != nil {
			return handler.Error(errors.Join(handler.ErrBadRequest, err))
		}
		raw = signalText(signals.Shares)
	}

	return handler.Templ(
		s.views.Total(TotalParams{Total: subscription.FormatSEK(subscription.LiveTotal(raw))}),
		handler.WithTarget("#total"),
	)
}

// signalText turns a bound input signal back into the text the buyer typed.
func signalText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
