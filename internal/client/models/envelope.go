package models

// Envelope is the API response wrapper. Data is nil when the server sent no
// payload (or an explicit null).
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Unwrap returns the payload or def when it is absent.
func (e Envelope[T]) Unwrap(def T) T {
	if e.Data == nil {
		return def
	}
	return *e.Data
}
