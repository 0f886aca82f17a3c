package subscription

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Request is a validated subscription. It is immutable once accepted.
type Request struct {
	Shares          int64  `json:"shares"`
	PersonalNumber  string `json:"personalNumber"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	PostalCode      string `json:"postalCode"`
	City            string `json:"city"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AccountNumber   string `json:"accountNumber"`
	BankInstitution string `json:"bankInstitution"`
	SignatureCity   string `json:"signatureCity"`
	SignatureDate   string `json:"signatureDate"`
	SignatureName   string `json:"signatureName"`
	GDPRConsent     bool   `json:"gdprConsent"`
	Acceptance      bool   `json:"acceptance"`
}

// Total is Shares × UnitPrice.
func (r Request) Total() decimal.Decimal {
	return Total(r.Shares)
}

// Payload is the flat key/value representation sent to the relays:
// formName, every form field under its wire name, and totalAmount as a
// JSON number.
func (r Request) Payload(formName string) map[string]any {
	return map[string]any{
		"formName":        formName,
		"shares":          strconv.FormatInt(r.Shares, 10),
		"personalNumber":  r.PersonalNumber,
		"name":            r.Name,
		"address":         r.Address,
		"postalCode":      r.PostalCode,
		"city":            r.City,
		"email":           r.Email,
		"phone":           r.Phone,
		"accountNumber":   r.AccountNumber,
		"bankInstitution": r.BankInstitution,
		"signatureCity":   r.SignatureCity,
		"signatureDate":   r.SignatureDate,
		"signatureName":   r.SignatureName,
		"gdprConsent":     r.GDPRConsent,
		"acceptance":      r.Acceptance,
		"totalAmount":     json.Number(r.Total().String()),
	}
}
