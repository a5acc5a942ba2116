package booking

import "errors"

var (
	// ErrSlotUnavailable is the expected, user-recoverable rejection when
	// the requested interval overlaps an active reservation.
	ErrSlotUnavailable = errors.New("slot unavailable")

	ErrCourtNotFound    = errors.New("court not found")
	ErrCourtUnavailable = errors.New("court is not open for booking")

	// ErrValidation wraps malformed input rejected before touching the store.
	ErrValidation = errors.New("invalid booking request")
)
