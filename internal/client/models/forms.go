package models

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/common"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects field errors. The zero value is a success.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// For returns the messages attached to field.
func (r ValidationResult) For(field string) []string {
	var out []string
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// Err converts a failed result into an error wrapping common.ErrValidation.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(parts, "; "))
}

func (r *ValidationResult) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// LoginForm is the login payload. Identifier is a username or an email.
type LoginForm struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (f LoginForm) Validate() ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(f.Identifier) == "" {
		r.add("identifier", "username or email is required")
	}
	if f.Password == "" {
		r.add("password", "password is required")
	} else if len(f.Password) < 6 {
		r.add("password", "password must be at least 6 characters")
	}
	return r
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,30}$`)

// CreateUserForm is the payload of POST /users.
type CreateUserForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	CustomID string `json:"custom_id,omitempty"`
}

func (f CreateUserForm) Validate() ValidationResult {
	var r ValidationResult

	if len(strings.TrimSpace(f.Name)) < 2 {
		r.add("name", "name must be at least 2 characters")
	}

	if strings.TrimSpace(f.Email) == "" {
		r.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		r.add("email", "email is not valid")
	}

	if !usernameRe.MatchString(f.Username) {
		r.add("username", "username must be 3-30 letters, digits, '_' or '.'")
	}

	if len(f.Password) < 8 {
		r.add("password", "password must be at least 8 characters")
	}

	if !f.Role.Valid() {
		r.add("role", "role must be one of ADMIN, STAFF, CLIENT, SUPERADMIN")
	}

	return r
}
