package submission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/auxesispharma/emission/svc/subscription"
)

// Record is an accepted subscription bound to a session.
type Record struct {
	ID          uuid.UUID            `json:"id"`
	SessionID   string               `json:"session_id"`
	Request     subscription.Request `json:"request"`
	SubmittedAt time.Time            `json:"submitted_at"`
	ExpiresAt   time.Time            `json:"expires_at"`

	State     State     `json:"state"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates an idle record for sessionID valid for ttl.
func NewRecord(sessionID string, req subscription.Request, now time.Time, ttl time.Duration) *Record {
	return &Record{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Request:     req,
		SubmittedAt: now,
		ExpiresAt:   now.Add(ttl),
		State:       StateIdle,
		UpdatedAt:   now,
	}
}

// Delivered reports whether the settlement note reached the mail relay.
func (r *Record) Delivered() bool {
	return r.State == StateDelivered
}

func (r *Record) Total() decimal.Decimal {
	return r.Request.Total()
}

func (r *Record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

func (r *Record) validate() error {
	if r == nil || r.SessionID == "" || r.ID == uuid.Nil {
		return ErrInvalidRecord
	}
	return nil
}

// apply moves the record through ev. detail is kept as LastError on fail and
// cleared on any other successful transition.
func (r *Record) apply(ev Event, detail string, now time.Time) error {
	next, err := Next(r.State, ev)
	if err != nil {
		return err
	}
	r.State = next
	r.UpdatedAt = now
	if ev == EventFail {
		r.LastError = detail
	} else if ev != EventNotReady {
		r.LastError = ""
	}
	return nil
}
