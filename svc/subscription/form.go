package subscription

import (
	"bytes"
	"strings"
)

// Form is the raw subscription form as posted by the buyer. Field names
// match the HTML form and the JSON payloads sent to the relays.
type Form struct {
	Shares          string  `form:"shares" json:"shares"`
	PersonalNumber  string  `form:"personalNumber" json:"personalNumber"`
	Name            string  `form:"name" json:"name"`
	Address         string  `form:"address" json:"address"`
	PostalCode      string  `form:"postalCode" json:"postalCode"`
	City            string  `form:"city" json:"city"`
	Email           string  `form:"email" json:"email"`
	Phone           string  `form:"phone" json:"phone"`
	AccountNumber   string  `form:"accountNumber" json:"accountNumber"`
	BankInstitution string  `form:"bankInstitution" json:"bankInstitution"`
	SignatureCity   string  `form:"signatureCity" json:"signatureCity"`
	SignatureDate   string  `form:"signatureDate" json:"signatureDate"`
	SignatureName   string  `form:"signatureName" json:"signatureName"`
	GDPRConsent     Consent `form:"gdprConsent" json:"gdprConsent"`
	Acceptance      Consent `form:"acceptance" json:"acceptance"`
}

// Consent is an explicit opt-in. Only the form value "true" or the JSON
// literal true set it; any other value leaves it unset without an error.
type Consent bool

func (c *Consent) UnmarshalText(text []byte) error {
	*c = Consent(strings.TrimSpace(string(text)) == "true")
	return nil
}

func (c *Consent) UnmarshalJSON(data []byte) error {
	*c = Consent(bytes.Equal(bytes.TrimSpace(data), []byte("true")))
	return nil
}

// Given reports whether consent was explicitly given.
func (c Consent) Given() bool {
	return bool(c)
}
