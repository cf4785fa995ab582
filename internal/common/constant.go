// Package common contains shared constants and sentinel errors used across
// loandesk components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on outbound API requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// BearerPrefix is prepended to the session token in the Authorization header.
	BearerPrefix = "Bearer "
)
