package subscription

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// OfferingCap is the number of B-shares offered in this emission.
	OfferingCap int64 = 300_000
	// Currency of every amount in the offering.
	Currency = "SEK"
)

// UnitPrice is the fixed price per B-share in SEK.
var UnitPrice = decimal.NewFromInt(82)

// Total returns shares × UnitPrice. Negative counts yield zero.
func Total(shares int64) decimal.Decimal {
	if shares <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(shares).Mul(UnitPrice)
}

// LiveTotal computes the total for an unvalidated share count as typed by
// the buyer. Empty, non-numeric or non-positive input yields zero.
// Fractional input is multiplied as is, never truncated.
func LiveTotal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	n, err := decimal.NewFromString(raw)
	if err != nil || !n.IsPositive() {
		return decimal.Zero
	}
	return n.Mul(UnitPrice)
}

var swedish = message.NewPrinter(language.Swedish)

// Separators of the Swedish locale, taken from the printer so that amounts
// and share counts group the same way.
var groupSep, decimalSep, minusSign = localeSymbols()

func localeSymbols() (group, dec, minus string) {
	group = strings.Trim(swedish.Sprintf("%d", 1000), "10")
	dec = strings.Trim(swedish.Sprintf("%.1f", 1.5), "15")
	minus = strings.TrimSuffix(swedish.Sprintf("%d", -1), "1")
	return group, dec, minus
}

// FormatSEK formats amount with Swedish digit grouping, e.g. "82 000 SEK".
// Whole amounts carry no decimals; others are rounded to öre. The digits
// come from the decimal itself, so amounts of any size stay exact.
func FormatSEK(amount decimal.Decimal) string {
	places := int32(0)
	if !amount.IsInteger() {
		places = 2
	}
	digits := amount.StringFixed(places)

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = minusSign, digits[1:]
	}
	whole, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSep)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(decimalSep)
		b.WriteString(frac)
	}
	b.WriteString(" ")
	b.WriteString(Currency)
	return b.String()
}

// FormatShares formats a share count with Swedish digit grouping.
func FormatShares(n int64) string {
	return swedish.Sprintf("%d", n)
}
