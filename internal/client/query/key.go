package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cached read. Two keys are equal when their canonical
// strings are equal, so element types matter: page 1 and page "1" are
// different entries.
type Key []any

// String returns the canonical JSON form of the key.
func (k Key) String() string {
	if k == nil {
		return "[]"
	}
	b, err := json.Marshal([]any(k))
	if err != nil {
		return fmt.Sprintf("%#v", []any(k))
	}
	return string(b)
}

// family is the canonical form of the first element. Keys sharing it are
// treated as one family for placeholder lookups.
func (k Key) family() string {
	if len(k) == 0 {
		return ""
	}
	return Key{k[0]}.String()
}

// HasPrefix reports whether the first len(prefix) elements of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		got, want := Key{k[i]}.String(), Key{prefix[i]}.String()
		if got != want {
			return false
		}
	}
	return true
}
