// Package ledger defines the error taxonomy shared by the order engine,
// the store implementations, and the HTTP layer.
//
// Input-validation errors are surfaced before any store access.
// Business-rule errors are surfaced after a read and never partially
// applied. Infrastructure errors are transient and retryable.
package ledger

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidQuantity is returned when the order quantity is not a
	// positive multiple of the board lot.
	ErrInvalidQuantity = errors.New("ledger: quantity must be a positive multiple of the board lot")

	// ErrInvalidPrice is returned when the reference price is not positive.
	ErrInvalidPrice = errors.New("ledger: price must be positive")

	// ErrInsufficientFunds is returned when a buy exceeds available cash.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrInsufficientPosition is returned when a sell exceeds the held quantity.
	ErrInsufficientPosition = errors.New("ledger: insufficient position")

	// ErrNotFound is returned for an unknown user or record.
	ErrNotFound = errors.New("ledger: not found")

	// ErrStoreUnavailable wraps transient store failures. Safe to retry
	// with backoff; no partial writes are left behind.
	ErrStoreUnavailable = errors.New("ledger: store unavailable")

	// ErrQuoteUnavailable is returned when a quote for a symbol cannot be
	// obtained. Transient for known symbols, terminal for unknown ones.
	ErrQuoteUnavailable = errors.New("ledger: quote unavailable")
)

// HTTPStatus maps a ledger error to the HTTP status code the API layer
// responds with. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientPosition):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrQuoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
