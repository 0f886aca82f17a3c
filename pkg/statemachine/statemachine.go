package statemachine

import (
	"context"
	"fmt"
)

// Guard evaluates whether a transition should be allowed based on runtime
// conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From   S
	Event  E
	To     S
	Guards []Guard[S, E] // all must pass
}

// T is shorthand for an unguarded Transition.
func T[S, E comparable](from S, event E, to S) Transition[S, E] {
	return Transition[S, E]{From: from, Event: event, To: to}
}

type key[S, E comparable] struct {
	from  S
	event E
}

// Machine is an immutable transition table. Safe for concurrent use.
type Machine[S, E comparable] struct {
	transitions map[key[S, E]][]Transition[S, E]
}

// New builds a machine from transitions. Unguarded duplicates of the same
// (from, event, to) are rejected.
func New[S, E comparable](transitions ...Transition[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{transitions: make(map[key[S, E]][]Transition[S, E], len(transitions))}
	for i, t := range transitions {
		k := key[S, E]{from: t.From, event: t.Event}
		for _, existing := range m.transitions[k] {
			if existing.To == t.To && len(existing.Guards) == 0 && len(t.Guards) == 0 {
				return nil, fmt.Errorf("%w: transition[%d] %v -(%v)-> %v", ErrDuplicateTransition, i, t.From, t.Event, t.To)
			}
		}
		m.transitions[k] = append(m.transitions[k], t)
	}
	return m, nil
}

// MustNew is New that panics on error, for package-level tables.
func MustNew[S, E comparable](transitions ...Transition[S, E]) *Machine[S, E] {
	m, err := New(transitions...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// Next returns the state reached from `from` on event. It returns
// *ErrNoTransitionAvailable when the table has no such transition and
// *ErrTransitionRejected when every candidate was blocked by a guard.
func (m *Machine[S, E]) Next(ctx context.Context, from S, event E) (S, error) {
	candidates := m.transitions[key[S, E]{from: from, event: event}]
	if len(candidates) == 0 {
		return from, newErrNoTransitionAvailable(from, event)
	}
	for _, t := range candidates {
		if guardsPass(ctx, t, from, event) {
			return t.To, nil
		}
	}
	return from, newErrTransitionRejected(from, event)
}

// CanFire reports whether Next would succeed.
func (m *Machine[S, E]) CanFire(ctx context.Context, from S, event E) bool {
	_, err := m.Next(ctx, from, event)
	return err == nil
}

func guardsPass[S, E comparable](ctx context.Context, t Transition[S, E], from S, event E) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, from, event) {
			return false
		}
	}
	return true
}
