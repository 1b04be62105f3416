package utils

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// ValidatePassword enforces the registration rule: at least 8 characters
// mixing letters and digits.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return errors.New("Password must contain both letters and numbers")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
