// Package validate holds the input rules for account fields. The same rules
// are applied by every entry point (HTTP handlers and the admin CLI).
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/webportal/internal/common"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`\d`)
	specialRe  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

const (
	MinFullNameLength  = 2
	MinPasswordLength  = 6
	MinPasswordScore   = 2
	UsernameFormatHint = "username must be 3-20 characters (a-z, A-Z, 0-9, _)"
)

// FieldError reports which input field failed validation. It matches
// common.ErrorValidation with errors.Is. Strength is set for weak passwords.
type FieldError struct {
	Field    string
	Message  string
	Strength *Strength
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return common.ErrorValidation
}

func fieldError(field, msg string) *FieldError {
	return &FieldError{Field: field, Message: msg}
}

// Username checks the 3-20 character [A-Za-z0-9_] shape.
func Username(username string) error {
	if !usernameRe.MatchString(username) {
		return fieldError("username", UsernameFormatHint)
	}
	return nil
}

func Email(email string) error {
	if !emailRe.MatchString(email) {
		return fieldError("email", "a valid email address is required")
	}
	return nil
}

func FullName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinFullNameLength {
		return fieldError("fullName", fmt.Sprintf("full name must be at least %d characters", MinFullNameLength))
	}
	return nil
}

// Password rejects passwords scoring below MinPasswordScore.
func Password(password string) error {
	s := PasswordStrength(password)
	if s.Score < MinPasswordScore {
		return &FieldError{
			Field:    "password",
			Message:  "password is too weak, add " + strings.Join(s.Requirements.Missing(), ", "),
			Strength: &s,
		}
	}
	return nil
}

// Registration validates a registration form. Fields are checked in form
// order and the first failure is returned.
func Registration(username, password, fullName, email string) error {
	if err := FullName(fullName); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Username(username); err != nil {
		return err
	}
	return Password(password)
}
