package authcore

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const maxNameLength = 128

// normalizeEmail lowercases and trims an address so lookups and uniqueness
// checks are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e *Engine) validateRegistration(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(in.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if err := e.validateEmail(in.Email); err != nil {
		return err
	}
	return e.validatePassword(in.Password)
}

func (e *Engine) validateEmail(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed email address", ErrValidation)
	}
	return nil
}

func (e *Engine) validatePassword(pw string) error {
	if len(pw) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}
	return nil
}
