package validation

import (
	"regexp"
	"strings"
)

// FieldErrors aggregates every validation failure keyed by field name.
// Handlers report all of them in a single response instead of failing fast.
type FieldErrors map[string][]string

// Add appends a message for the given field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Empty reports whether no errors were collected.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Details converts the collected errors into the error-response detail shape.
func (fe FieldErrors) Details() map[string]any {
	details := make(map[string]any, len(fe))
	for field, messages := range fe {
		details[field] = messages
	}
	return details
}

var (
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nameRe       = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s\-']+$`)
	stateRe      = regexp.MustCompile(`^[A-Z]{2}$`)
	postalRe     = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	nonDigitsRe  = regexp.MustCompile(`[^0-9]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// ValidEmail checks basic email format.
func ValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidName accepts letters, spaces, hyphens and apostrophes, 2..150 chars.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 150 {
		return false
	}
	return nameRe.MatchString(name)
}

// ValidPhone checks a Brazilian phone: 10 or 11 digits after stripping format.
func ValidPhone(phone string) bool {
	digits := nonDigitsRe.ReplaceAllString(phone, "")
	if len(digits) != 10 && len(digits) != 11 {
		return false
	}
	// area code never starts with zero
	return digits[0] != '0'
}

// NormalizePhone formats a valid phone as (DD) NNNNN-NNNN or (DD) NNNN-NNNN.
// Returns the input unchanged when it cannot be formatted.
func NormalizePhone(phone string) string {
	digits := nonDigitsRe.ReplaceAllString(phone, "")
	switch len(digits) {
	case 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	case 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	}
	return phone
}

// ValidPostalCode checks the NNNNN-NNN postal format (dash optional).
func ValidPostalCode(code string) bool {
	return postalRe.MatchString(strings.TrimSpace(code))
}

// NormalizePostalCode reformats a valid code as NNNNN-NNN.
func NormalizePostalCode(code string) string {
	digits := nonDigitsRe.ReplaceAllString(code, "")
	if len(digits) == 8 {
		return digits[:5] + "-" + digits[5:]
	}
	return code
}

// ValidState checks a two-letter uppercase state code.
func ValidState(state string) bool {
	return stateRe.MatchString(state)
}

// CollapseSpaces trims and collapses repeated whitespace.
func CollapseSpaces(val string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(val, " "))
}
