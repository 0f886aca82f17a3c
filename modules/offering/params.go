package offering

import (
	"html/template"

	"github.com/auxesispharma/emission/pkg/validator"
	"github.com/auxesispharma/emission/svc/submission"
	"github.com/auxesispharma/emission/svc/subscription"
)

// Notice levels.
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is a toast shown to the buyer.
type Notice struct {
	Level   string
	Message string
}

// Offering describes the share issue on the form page.
type Offering struct {
	UnitPrice string
	Cap       string
	Currency  string
}

// FormParams contains data for rendering the subscription form.
type FormParams struct {
	Form     subscription.Form
	Errors   validator.ValidationErrors
	Total    string
	Offering Offering
}

// TotalParams contains the live total shown next to the shares input.
type TotalParams struct {
	Total string
}

// NoteParams contains the settlement note data. The same params feed the
// confirmation page and the standalone document sent to the renderer.
type NoteParams struct {
	SubmissionID string
	Request      subscription.Request
	Shares       string
	UnitPrice    string
	Total        string
	SubmittedAt  string
	WebsiteURL   string
	QRCode       template.URL
}

// DeliveryStatusParams describes Channel B for the status element. Pending
// makes the element poll for updates.
type DeliveryStatusParams struct {
	State     submission.State
	Delivered bool
	Pending   bool
	CanRetry  bool
	Notice    string
}

// ConfirmationParams contains data for rendering the confirmation page.
type ConfirmationParams struct {
	Note    NoteParams
	Status  DeliveryStatusParams
	Notices []Notice
}

// PrivacyParams contains data for the privacy policy page.
type PrivacyParams struct {
	Controller string
	Contact    string
}
