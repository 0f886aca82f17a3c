package document

import "strings"

// Filename names the PDF after the digits of the buyer's personal or
// organisation number, falling back to a generic receipt name.
func Filename(personalNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, personalNumber)
	if digits == "" {
		digits = "kvitto"
	}
	return "Teckningsanmalan_" + digits + ".pdf"
}
