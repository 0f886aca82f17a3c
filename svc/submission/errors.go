package submission

import "errors"

var (
	ErrAlreadySubmitted   = errors.New("submission already exists for session")
	ErrNotFound           = errors.New("submission not found")
	ErrTransitionRejected = errors.New("delivery state transition rejected")
	ErrInvalidRecord      = errors.New("invalid submission record")
	ErrStoreUnavailable   = errors.New("submission store unavailable")
)
