package station

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means a referenced id does not exist. Removal-style
	// operations swallow it; lookups report it.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the backing store could not be reached. No
	// partial state may be assumed and nothing is broadcast.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports malformed or missing input. It names the violated
// fields so the caller can surface them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, reason := range e.Fields {
		parts = append(parts, f+": "+reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// StoreError wraps a low-level store failure as ErrStoreUnavailable.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
