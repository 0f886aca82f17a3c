package subscription

import (
	"strconv"
	"strings"

	"github.com/auxesispharma/emission/pkg/validator"
)

// Validate checks every rule of the form independently and returns either a
// Request or validator.ValidationErrors, never both.
func Validate(f Form) (Request, error) {
	shares, sharesOK := parseShares(f.Shares)

	err := validator.Apply(
		validator.Required("shares", f.Shares).WithMessage("Antal aktier måste anges"),
		validator.Check("shares", strings.TrimSpace(f.Shares) == "" || sharesOK, "Ange ett giltigt antal aktier"),
		validator.MaxNum("shares", shares, OfferingCap).WithMessage("Max 300 000 aktier tillgängliga i denna emission"),

		validator.MinLen("personalNumber", f.PersonalNumber, 10).WithMessage("Personnummer/org.nummer måste vara minst 10 siffror"),
		validator.MaxLen("personalNumber", f.PersonalNumber, 13).WithMessage("Personnummer/org.nummer får vara max 13 tecken"),

		validator.MinLen("name", f.Name, 2).WithMessage("Namn måste anges"),
		validator.MaxLen("name", f.Name, 100),

		validator.MinLen("address", f.Address, 5).WithMessage("Adress måste anges"),
		validator.MaxLen("address", f.Address, 200),

		validator.MinLen("postalCode", f.PostalCode, 5).WithMessage("Postnummer måste anges"),
		validator.MaxLen("postalCode", f.PostalCode, 10).WithMessage("Postnummer får vara max 10 tecken"),

		validator.MinLen("city", f.City, 2).WithMessage("Postort måste anges"),
		validator.MaxLen("city", f.City, 100),

		validator.ValidEmail("email", f.Email).WithMessage("Ogiltig e-postadress"),

		validator.MinLen("phone", f.Phone, 8).WithMessage("Telefonnummer måste vara minst 8 siffror"),
		validator.MaxLen("phone", f.Phone, 20).WithMessage("Telefonnummer måste vara max 20 tecken"),

		validator.MinLen("accountNumber", f.AccountNumber, 5).WithMessage("Depå/AF konto måste anges"),
		validator.MaxLen("accountNumber", f.AccountNumber, 50),

		validator.MinLen("bankInstitution", f.BankInstitution, 2).WithMessage("Bank/Institution måste anges"),
		validator.MaxLen("bankInstitution", f.BankInstitution, 100),

		validator.MinLen("signatureCity", f.SignatureCity, 2).WithMessage("Ort måste anges"),
		validator.MaxLen("signatureCity", f.SignatureCity, 100),

		validator.MinLen("signatureDate", f.SignatureDate, 1).WithMessage("Datum måste anges"),

		validator.MinLen("signatureName", f.SignatureName, 2).WithMessage("Underskrift (köpare) måste anges"),
		validator.MaxLen("signatureName", f.SignatureName, 100),

		validator.True("gdprConsent", f.GDPRConsent.Given()).WithMessage("Du måste godkänna behandling av personuppgifter enligt GDPR"),
		validator.True("acceptance", f.Acceptance.Given()).WithMessage("Du måste godkänna villkoren för att gå vidare"),
	)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Shares:          shares,
		PersonalNumber:  f.PersonalNumber,
		Name:            f.Name,
		Address:         f.Address,
		PostalCode:      f.PostalCode,
		City:            f.City,
		Email:           f.Email,
		Phone:           f.Phone,
		AccountNumber:   f.AccountNumber,
		BankInstitution: f.BankInstitution,
		SignatureCity:   f.SignatureCity,
		SignatureDate:   f.SignatureDate,
		SignatureName:   f.SignatureName,
		GDPRConsent:     true,
		Acceptance:      true,
	}, nil
}

// parseShares accepts a positive whole number of shares.
func parseShares(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
