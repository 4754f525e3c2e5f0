package domain

import "errors"

var (
	// ErrInvalidBarcode is returned when a barcode is empty or blank.
	// The caller's fault; surfaced immediately, never retried.
	ErrInvalidBarcode = errors.New("barcode must not be empty")

	// ErrProductNotFound is returned by the lookup provider when it has
	// no record for a barcode.
	ErrProductNotFound = errors.New("product not found")

	// ErrLookupFailure is returned when the provider request fails
	// (transport, status, or parse). Absorbed into Outcome=Error at the
	// resolver boundary, never propagated to the UI.
	ErrLookupFailure = errors.New("product lookup failed")

	// ErrDeviceUnavailable is returned when camera acquisition fails
	// (no device, no permission). The prescribed fallback is manual entry.
	ErrDeviceUnavailable = errors.New("camera device unavailable")

	// ErrCacheMiss is returned when data is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrFlowState is returned when an operation is not valid in the
	// acquisition flow's current state.
	ErrFlowState = errors.New("operation not valid in current flow state")

	// ErrFlowNotFound is returned when no live flow matches the given ID.
	ErrFlowNotFound = errors.New("acquisition flow not found")

	// ErrInventoryFailure is returned when the inventory backend rejects
	// or fails a persistence request.
	ErrInventoryFailure = errors.New("inventory backend request failed")
)
