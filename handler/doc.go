// Package handler turns typed request handlers into http.HandlerFuncs.
//
// A HandlerFunc receives a Context and a request value decoded by the
// configured binders and returns a Response that renders itself:
//
//	type subscribeRequest struct {
//		Shares string `form:"shares"`
//	}
//
//	h := handler.HandlerFunc[subscribeRequest](func(ctx handler.Context, req subscribeRequest) handler.Response {
//		return handler.Templ(views.Total(req.Shares), handler.WithTarget("#total"))
//	})
//	r.Post("/subscribe/total", handler.Wrap(h, handler.WithBinders[subscribeRequest](binder.Form())))
//
// Responses adapt to datastar requests: templ responses become element
// patches over SSE, redirects become datastar redirects, and the error
// handler renders toasts instead of full error pages.
package handler
