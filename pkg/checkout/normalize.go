package checkout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionRunes bounds line item descriptions sent to the gateway.
const MaxDescriptionRunes = 256

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit price to integer cents, rounding half
// away from zero. Negative prices are treated as free.
func ToMinorUnits(price decimal.Decimal) int64 {
	if price.IsNegative() {
		return 0
	}
	return price.Mul(hundred).Round(0).IntPart()
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TruncateRunes cuts s to at most max runes without splitting a character.
func TruncateRunes(s string, max int) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// PhoneParts is a phone number split the way card gateways expect it.
type PhoneParts struct {
	CountryCode string
	AreaCode    string
	Number      string
}

// SplitPhone normalizes raw to digits and splits it into country, two-digit
// area code and subscriber number. A leading country code is only stripped
// when the remainder still holds a full national number. ok is false when
// there are not enough digits for an area code and a subscriber number.
func SplitPhone(raw, defaultCountry string) (PhoneParts, bool) {
	digits := DigitsOnly(raw)
	country := DigitsOnly(defaultCountry)

	if country != "" && strings.HasPrefix(digits, country) && len(digits)-len(country) >= 10 {
		digits = digits[len(country):]
	}
	if len(digits) < 3 {
		return PhoneParts{}, false
	}
	return PhoneParts{
		CountryCode: country,
		AreaCode:    digits[:2],
		Number:      digits[2:],
	}, true
}
