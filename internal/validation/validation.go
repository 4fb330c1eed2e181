package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	// ErrInvalidEmail is returned when an email address fails to parse
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrEmailTooLong is returned when an email exceeds the RFC limit
	ErrEmailTooLong = errors.New("email must be at most 320 characters")

	// ErrInvalidCategory is returned for an unknown provider category
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidCodeFormat is returned when an invitation code doesn't match the expected pattern
	ErrInvalidCodeFormat = errors.New("invalid invitation code format")

	// codeRegex validates invitation code format: STR-YEAR-NAME-RANDOM
	codeRegex = regexp.MustCompile(`^STR-\d{4}-[A-Z]{1,6}-[A-Z0-9]{3}$`)
)

// Categories lists the provider categories accepted across the platform.
var Categories = []string{"tour", "delivery", "marketplace", "stay", "service"}

// ValidateEmail validates an email address per RFC 5322 (simplified)
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	if len(email) > 320 {
		return ErrEmailTooLong
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateCategory checks that the category is one of the known provider categories
func ValidateCategory(category string) error {
	for _, c := range Categories {
		if category == c {
			return nil
		}
	}
	return ErrInvalidCategory
}

// ValidateCodeFormat checks the shape of an invitation code without touching the store
func ValidateCodeFormat(code string) error {
	if !codeRegex.MatchString(strings.TrimSpace(code)) {
		return ErrInvalidCodeFormat
	}
	return nil
}

// NormalizeCode uppercases and trims an invitation code for lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
