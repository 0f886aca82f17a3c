package submission

import "context"

// Store holds at most one live Record per session.
type Store interface {
	// Save stores rec. It returns ErrAlreadySubmitted when the session
	// already has a live record.
	Save(ctx context.Context, rec *Record) error

	// Get returns the session's record or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Record, error)

	// Fire atomically applies ev to the session's delivery state and returns
	// the updated record. Disallowed transitions return ErrTransitionRejected
	// and leave the record untouched.
	Fire(ctx context.Context, sessionID string, ev Event, detail string) (*Record, error)

	// Delete removes the session's record. Deleting a missing record is not
	// an error.
	Delete(ctx context.Context, sessionID string) error
}
