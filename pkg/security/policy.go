package security

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// SpecialCharacters lists the punctuation that satisfies the special-character rule.
const SpecialCharacters = `!@#$%^&*()-_=+[]{};:,.<>/?\|`

// Reasons returned by IsStrong, in evaluation order.
const (
	ReasonTooShort       = "password must be at least 8 characters"
	ReasonMissingUpper   = "password must contain an uppercase letter"
	ReasonMissingLower   = "password must contain a lowercase letter"
	ReasonMissingDigit   = "password must contain a digit"
	ReasonMissingSpecial = "password must contain a special character"
)

// IsStrong reports whether password satisfies the strength policy. When it
// does not, the first failing rule is returned as reason.
func IsStrong(password string) (bool, string) {
	if strings.TrimSpace(password) == "" || utf8.RuneCountInString(password) < MinPasswordLength {
		return false, ReasonTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(SpecialCharacters, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return false, ReasonMissingUpper
	case !hasLower:
		return false, ReasonMissingLower
	case !hasDigit:
		return false, ReasonMissingDigit
	case !hasSpecial:
		return false, ReasonMissingSpecial
	}
	return true, ""
}
