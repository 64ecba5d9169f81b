package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Every failure
// the core can produce is one of these; nothing is swallowed internally.
// The HTTP layer owns the mapping to status codes and messages.

var (
	// Generic missing entity (customer, enquiry, history entry).
	ErrNotFound = errors.New("entity not found")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("stage transition not permitted from current stage")
	ErrVersionConflict   = errors.New("customer version conflict: record was modified concurrently")
	ErrPartialTransition = errors.New("stage transition torn: customer updated without matching history entry")

	// Fee errors
	ErrFeeNotFound      = errors.New("fee not found")
	ErrInvalidFeeAmount = errors.New("fee amount must be a non-negative number")
	ErrInvalidFeeType   = errors.New("unknown fee type")

	// Idempotency errors
	ErrDuplicateRequest = errors.New("duplicate request for idempotency key")

	// Enquiry errors
	ErrAlreadyConverted = errors.New("enquiry already converted to a customer")
)
