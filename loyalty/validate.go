package loyalty

import (
	"math/rand"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation for the surrounding layers. The core re-validates
// only the card number itself (see NewCard); names and phones are
// checked here by callers before construction.

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	phoneRe      = regexp.MustCompile(`^\+\d{12}$`)
	clientNameRe = regexp.MustCompile(`^[\p{L}\s\-']+$`)
)

// ValidCardNumber reports whether s is exactly sixteen digits.
func ValidCardNumber(s string) bool {
	return cardNumberRe.MatchString(s)
}

// ValidClientName reports whether s is a plausible client name: letters,
// spaces, hyphens, and apostrophes, at least two characters.
func ValidClientName(s string) bool {
	trimmed := strings.TrimSpace(s)
	return utf8.RuneCountInString(trimmed) >= 2 && clientNameRe.MatchString(trimmed)
}

// ValidPhone reports whether s is a plus sign followed by twelve digits.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// FormatPhone normalizes a phone number to +############ form where
// possible, returning the input unchanged otherwise.
func FormatPhone(s string) string {
	if ValidPhone(s) {
		return s
	}
	var digits strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 12 {
		return "+" + digits.String()
	}
	return s
}

// GenerateCardNumber returns a random syntactically valid card number.
// Non-cryptographic convenience for the registration flow; the core only
// validates the format.
func GenerateCardNumber() string {
	digits := make([]byte, CardNumberLength)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}
