package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error taxonomy. Handlers match these with errors.Is; the specific errors below wrap one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrOutOfStock   = errors.New("out of stock")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrSellerNotFound       = fmt.Errorf("seller %w", ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrFeedbackNotFound     = fmt.Errorf("feedback %w", ErrNotFound)

	ErrProductInUse   = fmt.Errorf("product is referenced by orders: %w", ErrConflict)
	ErrStockExhausted = fmt.Errorf("stock sold out before the order could be placed: %w", ErrConflict)
)

// ValidationError holds per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
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
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
