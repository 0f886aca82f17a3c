package offering

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures what the offering router serves. Nil entries are
// not mounted.
type RouterOptions struct {
	// Offering serves the buyer pages.
	Offering Mountable
	// MailRelay receives the settlement note at /api/send-pdf. It is a
	// server-to-server endpoint and never sees the session middleware.
	MailRelay http.Handler
	// Sessions wraps the buyer pages, typically session.Manager.Middleware.
	Sessions func(http.Handler) http.Handler
}

// Router creates the public router of the share offering.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/", offering.Router(offering.RouterOptions{
//		Offering:  svc,
//		MailRelay: relaySvc.Handler(),
//		Sessions:  sessions.Middleware,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.MailRelay != nil {
		r.Method(http.MethodPost, "/api/send-pdf", opts.MailRelay)
	}
	if opts.Offering != nil {
		r.Group(func(r chi.Router) {
			if opts.Sessions != nil {
				r.Use(opts.Sessions)
			}
			r.Mount("/", opts.Offering.Handle())
		})
	}

	return r
}
