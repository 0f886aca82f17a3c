package offering

import (
	"net/http"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/svc/delivery"
)

var (
	ErrNoSession        = handler.NewHTTPError(http.StatusInternalServerError, "session_missing")
	ErrAlreadySubmitted = handler.ErrConflict.WithText("Teckningsanmälan är redan inskickad.")
	ErrNoSubmission     = handler.ErrNotFound.WithText("Ingen teckningsanmälan hittades.")
	ErrStoreUnavailable = handler.NewHTTPError(http.StatusServiceUnavailable, "store_unavailable").WithText("Tjänsten är tillfälligt otillgänglig. Försök igen om en stund.")
	ErrRenderFailed     = handler.NewHTTPError(http.StatusInternalServerError, "render_failed").WithText(delivery.NoticeRenderFailed)
)
