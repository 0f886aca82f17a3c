// Package delivery sends an accepted subscription to the company over two
// independent channels.
//
// Channel A (data) posts the form fields as JSON to the form relay. Channel B
// (document) renders the settlement note to PDF and posts it, with the same
// fields as metadata, to the mail relay endpoint. Each channel has its own
// Result; a failure on one never affects the other, and neither is retried
// automatically. Channel B is guarded by the submission store's delivery
// state machine so at most one attempt per session is in flight and a
// delivered note is never sent twice.
//
// Both channels run detached from the caller's context and are bounded by
// Config.Timeout, so a browser closing the tab does not cancel delivery.
package delivery
