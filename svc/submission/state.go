package submission

import (
	"context"
	"errors"

	"github.com/auxesispharma/emission/pkg/statemachine"
)

// State is the document delivery state of a record.
type State string

const (
	StateIdle       State = "idle"
	StateRendering  State = "rendering"
	StateDelivering State = "delivering"
	StateDelivered  State = "delivered"
	StateFailed     State = "failed"
)

func (s State) String() string { return string(s) }

// Event drives State transitions.
type Event string

const (
	EventStart     Event = "start"
	EventRendered  Event = "rendered"
	EventNotReady  Event = "not_ready"
	EventDelivered Event = "delivered"
	EventFail      Event = "fail"
)

func (e Event) String() string { return string(e) }

var delivery = statemachine.MustNew(
	statemachine.T(StateIdle, EventStart, StateRendering),
	statemachine.T(StateFailed, EventStart, StateRendering),
	statemachine.T(StateRendering, EventRendered, StateDelivering),
	statemachine.T(StateRendering, EventNotReady, StateIdle),
	statemachine.T(StateDelivering, EventDelivered, StateDelivered),
	statemachine.T(StateRendering, EventFail, StateFailed),
	statemachine.T(StateDelivering, EventFail, StateFailed),
)

// Next returns the state reached from `from` on ev, or ErrTransitionRejected.
func Next(from State, ev Event) (State, error) {
	to, err := delivery.Next(context.Background(), from, ev)
	if err != nil {
		return from, errors.Join(ErrTransitionRejected, err)
	}
	return to, nil
}

// CanFire reports whether ev is allowed from s.
func CanFire(s State, ev Event) bool {
	return delivery.CanFire(context.Background(), s, ev)
}

// InProgress reports whether a delivery attempt currently owns the record.
func (s State) InProgress() bool {
	return s == StateRendering || s == StateDelivering
}
