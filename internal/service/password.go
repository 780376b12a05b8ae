package service

import (
	"errors"
	"strings"
	"unicode"
)

var ErrWeakPassword = errors.New("password must be 8 to 32 characters and contain an uppercase letter, a lowercase letter, a digit and a special character")

const passwordSpecials = `*.!@#$%^&(){}[]:;<>,?/~_+-=|`

// ValidatePassword enforces the account password policy
func ValidatePassword(password string) error {
	if n := len([]rune(password)); n < 8 || n > 32 {
		return ErrWeakPassword
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
