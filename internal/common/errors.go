// Package common defines shared constants and sentinel errors used across
// the API client, the query cache and the CLI. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Transport / API errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("server unavailable")
	ErrValidation   = errors.New("validation error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Local state errors.
	ErrNotLoggedIn = errors.New("not logged in")
)
