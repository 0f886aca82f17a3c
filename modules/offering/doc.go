// Package offering is the buyer-facing web module of the share issue.
//
// It serves the subscription form, validates and stores the submission for
// the visitor's session, renders the settlement note and hands it to the
// delivery dispatcher. Views are injected through Views so the module has no
// dependency on a particular template set:
//
//	svc := offering.NewService(cfg, store, dispatcher, renderer, sessions, views,
//		offering.WithLogger(log),
//		offering.WithMetrics(m),
//		offering.WithErrorHandler(errorHandler),
//	)
//
//	r := chi.NewRouter()
//	r.Mount("/", offering.Router(offering.RouterOptions{
//		Offering:  svc,
//		MailRelay: relaySvc.Handler(),
//		Sessions:  sessions.Middleware,
//	}))
//
// Background deliveries started by the module outlive the request. Call
// Service.Wait during shutdown to let them finish.
package offering
