package auth

import (
	"chat-relay/errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValidateCredentials checks the registration rules.
// Lengths are counted in characters, not bytes.
func ValidateCredentials(c Credentials) error {
	if err := ValidateUsername(c.Username); err != nil {
		return err
	}
	return ValidatePassword(c.Password)
}

func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,min=3,max=32"); err != nil {
		return errors.ErrInvalidUsername
	}
	for _, char := range username {
		if unicode.IsSpace(char) || unicode.IsControl(char) {
			return errors.ErrInvalidUsername
		}
	}
	return nil
}

func ValidatePassword(password string) error {
	if err := validate.Var(password, "required,min=8,max=72"); err != nil {
		return errors.ErrInvalidPassword
	}
	if !isPasswordComplex(password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// At least one digit and one special character
func isPasswordComplex(s string) bool {
	var (
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasNumber && hasSpecial
}
