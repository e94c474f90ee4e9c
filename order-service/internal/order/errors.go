package order

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotOrderOwner and ErrOrderNotPending reject a cancellation.
	ErrNotOrderOwner   = errors.New("order does not belong to the requesting user")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrIntegrity       = errors.New("order data violates a database constraint")
)

// ValidationError maps request fields to messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) merge(prefix string, other *ValidationError) {
	for k, v := range other.Fields {
		e.add(prefix+k, v)
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
