package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/auxesispharma/emission/pkg/binder"
	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/pkg/requestid"
)

// ErrorPageParams is passed to the error page component.
type ErrorPageParams struct {
	Message    string
	StatusCode int
	RequestID  string
	RetryURL   string
}

// ErrorToastParams is passed to the toast component.
type ErrorToastParams struct {
	Message   string
	Level     string // "error" or "warning"
	RequestID string
}

type ErrorHandlerConfig struct {
	ErrorPage   func(ErrorPageParams) templ.Component
	ErrorToast  func(ErrorToastParams) templ.Component
	ToastTarget string
	// FallbackMessage is shown for errors without a user-facing text.
	FallbackMessage string
}

type errorInfo struct {
	status  int
	message string
}

func classifyError(err error, fallback string) errorInfo {
	info := errorInfo{status: http.StatusInternalServerError, message: fallback}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.status = httpErr.Code
		info.message = httpErr.Message()
	}
	if errors.Is(err, binder.ErrInvalidForm) || errors.Is(err, binder.ErrInvalidJSON) {
		info.status = http.StatusBadRequest
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		info.status = http.StatusUnprocessableEntity
		info.message = ve.Error()
	}
	return info
}

// NewErrorHandler logs the error and renders either an error page or, for
// datastar requests, a toast. JSON clients get the JSON error envelope.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler {
	if log == nil {
		log = logger.Noop()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toasts"
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = "Något gick fel. Försök igen."
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()
		reqID := requestid.FromContext(r.Context())
		info := classifyError(err, cfg.FallbackMessage)

		level := slog.LevelError
		if info.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.Component("error_handler"),
			logger.Error(err),
			logger.StatusCode(info.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		var resp Response
		switch {
		case IsDataStar(r) && cfg.ErrorToast != nil:
			toastLevel := "error"
			if info.status < http.StatusInternalServerError {
				toastLevel = "warning"
			}
			resp = Templ(
				cfg.ErrorToast(ErrorToastParams{Message: info.message, Level: toastLevel, RequestID: reqID}),
				WithTarget(cfg.ToastTarget),
				WithPatchMode(PatchAppend),
			)
		case WantsJSON(r):
			resp = JSONError(err)
		case cfg.ErrorPage != nil:
			resp = TemplStatus(info.status, cfg.ErrorPage(ErrorPageParams{
				Message:    info.message,
				StatusCode: info.status,
				RequestID:  reqID,
				RetryURL:   r.URL.Path,
			}))
		default:
			http.Error(w, info.message, info.status)
			return
		}

		if renderErr := resp.Render(w, r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Component("error_handler"),
				logger.Error(renderErr),
			)
		}
	}
}

// WantsJSON reports whether the client asked for, or sent, JSON. Datastar
// requests post their signals as JSON but expect SSE back.
func WantsJSON(r *http.Request) bool {
	if IsDataStar(r) {
		return false
	}
	ct := r.Header.Get("Content-Type")
	accept := r.Header.Get("Accept")
	return accept == "application/json" || (ct == "application/json" && accept != "text/html")
}
