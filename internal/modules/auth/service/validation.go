package service

import (
	"regexp"
	"strings"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const specialChars = "@$!%*?&"

// validatePassword enforces the rule of spec.md §6: at least 8 characters
// and one character from each of lowercase, uppercase, digit, and the
// fixed special-character set.
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return apperr.Validation("password must contain a lowercase letter, an uppercase letter, a digit, and one of @$!%*?&")
	}
	return nil
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperr.Validation("username must be 3-30 characters, letters, digits, or underscore")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Validation("invalid email address")
	}
	return nil
}
