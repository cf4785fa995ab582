// Package client is the HTTP client of the loan management API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) consumed by
//     the feature services: Login, ListContracts, GetContract, ListUsers,
//     CreateUser and Ping.
//  2. A concrete implementation over fiber's HTTP agent (see HTTPClient) that
//     joins paths onto the base URL, injects the bearer token and a request
//     id, unwraps the `{ data: ... }` envelope and maps HTTP statuses to
//     sentinel errors.
//
// # Error Handling
//
// Failures are returned as sentinels from package common, matched with
// errors.Is: ErrUnauthorized (401), ErrForbidden (403), ErrNotFound (404),
// ErrValidation (400/422) and ErrUnavailable (5xx or transport failure).
// A 401 on an authenticated request also fires Options.OnUnauthorized so the
// owner of the session can drop it.
//
// An envelope without data is not an error: the method returns a nil payload
// and the caller substitutes its default.
package client
