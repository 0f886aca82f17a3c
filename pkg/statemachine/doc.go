// Package statemachine provides a stateless finite state machine: a table of
// allowed transitions that computes the next state for a (state, event) pair.
//
// The table holds no current state. Callers keep the state wherever it lives
// (a struct field, a Redis value) and apply transitions under their own
// atomicity guarantees:
//
//	m := statemachine.MustNew(
//		statemachine.T(Idle, Start, Running),
//		statemachine.T(Running, Finish, Done),
//	)
//	next, err := m.Next(current, Start)
//	if statemachine.IsNoTransitionAvailableError(err) {
//		// event not allowed from current
//	}
//
// Optional guards run before a transition is selected; the first transition
// whose guards all pass wins, so guard-based branching on the same event is
// possible.
package statemachine
