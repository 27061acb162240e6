package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for 404 responses on product and transaction lookups.
	ErrNotFound = errors.New("not found")
	// ErrInvalidResponse is returned when a response body does not match its schema.
	ErrInvalidResponse = errors.New("invalid backend response")
	// ErrInvalidRequest is returned before sending a payload that fails validation.
	ErrInvalidRequest = errors.New("invalid backend request")
)

// PurchaseError is a purchase rejected by the backend. Payload is the raw
// response body, surfaced verbatim to the cashier.
type PurchaseError struct {
	Status  int
	Payload string
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("purchase failed (status %d): %s", e.Status, e.Payload)
}

// StatusError is an unexpected non-2xx status on a lookup.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}
