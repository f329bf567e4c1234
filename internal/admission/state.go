package admission

import (
	"time"

	"github.com/ironloft/gym-admin/internal/model"
)

// Transition moves a booking to the target status in place,
// stamping DecidedAt, or returns an error describing why the move is
// illegal.  The lifecycle graph:
//
//	PENDING  -> APPROVED | REJECTED | CANCELLED
//	APPROVED -> CANCELLED
//
// REJECTED and CANCELLED are terminal.  Every booking starts as
// PENDING; auto-approval is a PENDING->APPROVED transition performed
// in the same operation as creation, not a bypass of the state.
func Transition(b *model.Booking, to model.BookingStatus, at time.Time) error {
	if b.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	switch to {
	case model.BookingApproved, model.BookingRejected:
		if b.Status != model.BookingPending {
			return ErrNotPending
		}
	case model.BookingCancelled:
		// Legal from both PENDING and APPROVED.
	default:
		return ErrInvalidTransition
	}
	b.Status = to
	t := at.UTC()
	b.DecidedAt = &t
	return nil
}
