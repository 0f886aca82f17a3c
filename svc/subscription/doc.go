// Package subscription holds the share subscription form, its validation
// rules and the purchase total calculation.
//
// A Form is what the buyer posted; Validate turns it into a typed Request or
// returns validator.ValidationErrors keyed by the form's field names. Totals
// are always derived from the share count and never stored:
//
//	req, err := subscription.Validate(form)
//	if err != nil {
//		errs := validator.ExtractValidationErrors(err)
//		// re-render the form with errs
//	}
//	fmt.Println(subscription.FormatSEK(req.Total()))
package subscription
