// Package submission stores the one accepted subscription of a browser
// session together with its delivery state.
//
// A Record is written once by Save and never modified afterwards except for
// its delivery state, which only moves through Fire. Fire is an atomic
// check-and-set against the transition table in state.go, so two concurrent
// attempts to start a document delivery cannot both succeed:
//
//	rec, err := store.Fire(ctx, sessionID, submission.EventStart, "")
//	if errors.Is(err, submission.ErrTransitionRejected) {
//		// already rendering, delivering or delivered
//	}
//
// Entries expire with the session; the store is not a durable record of the
// submission.
package submission
