// Package admission decides which booking requests become confirmed
// seats.  It owns the booking lifecycle, enforces event capacity
// under concurrent requests, and applies group-based approval
// overrides.  All booking state changes in the system go through the
// Coordinator in this package.
package admission

import "errors"

// Business outcomes and caller errors.  These are expected during
// normal operation and are recovered into ordinary responses.
var (
	// ErrCapacityExceeded is returned by the ledger when admitting one
	// more seat-consuming booking would push held past capacity.  The
	// coordinator converts it into a REJECTED booking rather than a
	// failed request.
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrNotPending is returned when approve or reject is attempted on
	// a booking that is not PENDING.
	ErrNotPending = errors.New("booking is not pending")

	// ErrAlreadyTerminal is returned when any transition is attempted
	// on a REJECTED or CANCELLED booking.
	ErrAlreadyTerminal = errors.New("booking is already terminal")

	// ErrInvalidTransition is returned for transitions outside the
	// lifecycle graph entirely.
	ErrInvalidTransition = errors.New("invalid booking transition")

	// ErrDuplicateBooking is returned when the member already has a
	// non-terminal booking for the event.
	ErrDuplicateBooking = errors.New("member already has an active booking for this event")

	ErrMemberNotFound  = errors.New("member not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// ErrInternalConsistency indicates a bug in the admission core: a
// release without a matching reservation, or a held count found
// negative.  It is never expected, must not be silently corrected,
// and callers surface it distinctly so operators can alert on it.
var ErrInternalConsistency = errors.New("admission ledger consistency violation")
