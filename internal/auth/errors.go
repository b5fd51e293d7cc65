package auth

import (
	"errors"
	"sort"
	"strings"
)

// Lookup misses are deliberately vague about which field was wrong.
var (
	ErrInviteNotFound         = errors.New("invite not found")
	ErrPasswordRequired       = errors.New("password is required")
	ErrInviteExpired          = errors.New("invite has expired")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token has expired")
	ErrMalformedOrganizations = errors.New("organizations must be a list of records")
)

// ValidationError reports malformed input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ConstraintError is returned when the store rejects a write, or when a
// required field is missing. Detail carries the store's own message.
type ConstraintError struct {
	Detail string
	Err    error
}

func (e *ConstraintError) Error() string {
	return "constraint violation: " + e.Detail
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func constraintViolation(err error) error {
	return &ConstraintError{Detail: err.Error(), Err: err}
}

func missingField(field string) error {
	return &ConstraintError{Detail: field + " is required"}
}
