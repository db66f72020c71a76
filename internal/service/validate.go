package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sumanskitchen/kitchen-go/internal/model"
)

// ErrValidation wraps every input validation failure so handlers can map them to 400.
var ErrValidation = errors.New("validation failed")

const (
	maxEmailLength       = 255
	maxNameLength        = 100
	minPasswordLength    = 8
	maxPasswordLength    = 100
	maxPasswordBytes     = 72
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	if len(email) > maxEmailLength {
		return invalid("email must be at most %d characters", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not a valid address")
	}
	return nil
}

func validateRegistration(req model.CreateUserRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Name)); n == 0 || n > maxNameLength {
		return invalid("name must be between 1 and %d characters", maxNameLength)
	}
	n := utf8.RuneCountInString(req.Password)
	if n < minPasswordLength || n > maxPasswordLength {
		return invalid("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	// bcrypt rejects longer inputs outright.
	if len(req.Password) > maxPasswordBytes {
		return invalid("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// clampName trims name to the stored column width.
func clampName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= maxNameLength {
		return name
	}
	return string([]rune(name)[:maxNameLength])
}

func validateRecipe(req model.RecipeRequest) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Title)); n == 0 || n > maxTitleLength {
		return invalid("title must be between 1 and %d characters", maxTitleLength)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Description)); n == 0 || n > maxDescriptionLength {
		return invalid("description must be between 1 and %d characters", maxDescriptionLength)
	}
	return nil
}
