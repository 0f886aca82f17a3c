package delivery

import (
	"context"
	"time"

	"github.com/auxesispharma/emission/pkg/async"
)

// Channel names.
const (
	ChannelData     = "data"
	ChannelDocument = "document"
)

// Status of one channel attempt.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusNotReady Status = "not_ready"
	// StatusSkipped means the state machine refused the attempt: another
	// attempt is in flight or the note was already delivered.
	StatusSkipped Status = "skipped"
)

// Soft notices shown to the buyer. Delivery problems never block the
// confirmation.
const (
	NoticeReceived       = "Teckningsanmälan mottagen!"
	NoticeDataFailed     = "Formuläret är registrerat, men e-postbekräftelsen kunde inte skickas."
	NoticeDocumentFailed = "PDF är skapad, men kunde inte skickas automatiskt till bolaget."
	NoticeRenderFailed   = "Kunde inte generera PDF."
)

// Result of a single channel attempt.
type Result struct {
	Channel    string
	Status     Status
	StatusCode int
	Duration   time.Duration
	Filename   string
	// Notice is the user-facing warning for a failed attempt.
	Notice string
	Err    error
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Outcome holds both channels of a Dispatch.
type Outcome struct {
	Data     *async.Future[Result]
	Document *async.Future[Result]

	dataWait time.Duration
}

// AwaitData waits for Channel A for at most the configured data relay wait.
// It reports false when the channel is still running; the attempt itself
// continues in the background.
func (o Outcome) AwaitData(ctx context.Context) (Result, bool) {
	if o.Data == nil {
		return Result{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, o.dataWait)
	defer cancel()
	res, err := o.Data.AwaitContext(ctx)
	if err != nil {
		return Result{}, false
	}
	return res, true
}

// Wait blocks until both channels finished.
func (o Outcome) Wait() (data, document Result) {
	if o.Data != nil {
		data, _ = o.Data.Await()
	}
	if o.Document != nil {
		document, _ = o.Document.Await()
	}
	return data, document
}
