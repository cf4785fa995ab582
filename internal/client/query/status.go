package query

import (
	"context"
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is what a reader sees for one key at one moment.
type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	UpdatedAt time.Time

	// IsStale is set when Data is older than the stale time or was invalidated.
	IsStale bool
	// IsPlaceholder is set when Data belongs to another key of the same family.
	IsPlaceholder bool
	// IsFetching is set while a fetch for the key is in flight.
	IsFetching bool
}

// Query describes one read.
type Query[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)

	// Disabled suppresses fetching; cached data, if any, is still returned.
	Disabled bool
	// KeepPrevious shows the newest data of the same key family while the
	// requested key has nothing yet.
	KeepPrevious bool
	// StaleTime overrides Options.StaleTime when positive.
	StaleTime time.Duration
}
