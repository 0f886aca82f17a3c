// Package validator provides small composable validation rules.
//
// Each rule captures the value at construction time and is evaluated by
// Apply. Every rule is evaluated; failures are collected into a
// ValidationErrors value keyed by field name, so callers can report all
// problems at once:
//
//	err := validator.Apply(
//		validator.Required("name", req.Name).WithMessage("Namn måste anges"),
//		validator.MinLen("name", req.Name, 2).WithMessage("Namn måste anges"),
//		validator.ValidEmail("email", req.Email),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//		// errs.Map() → map[field][]message
//	}
//
// Lengths count characters, not bytes.
package validator
