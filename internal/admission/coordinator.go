package admission

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ironloft/gym-admin/internal/model"
)

// MemberStore is what the coordinator needs from member persistence.
type MemberStore interface {
	// GetMember loads a member with their group memberships, or
	// ErrMemberNotFound.
	GetMember(ctx context.Context, id string) (*model.Member, error)
	// RecordVisit appends a visit row and bumps the member's
	// attendance count.  Called after a booking is approved.
	RecordVisit(ctx context.Context, memberID string, eventID string, source string) error
}

// EventStore is what the coordinator needs from event persistence.
type EventStore interface {
	// GetEvent loads an event, or ErrEventNotFound.
	GetEvent(ctx context.Context, id string) (*model.Event, error)
}

// BookingStore is what the coordinator needs from booking
// persistence.  FinalizeBooking is a conditional update: it applies
// the transition only if the row is still in the expected state, so
// racing approve/cancel calls resolve to exactly one winner.
type BookingStore interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// InsertBooking persists a new booking.  The store enforces the
	// one-active-booking-per-member-per-event rule atomically and
	// returns ErrDuplicateBooking when a non-terminal PENDING or
	// APPROVED row already exists for the pair.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// HasActiveBooking reports whether the member already holds a
	// non-terminal booking for the event.
	HasActiveBooking(ctx context.Context, eventID, memberID string) (bool, error)
	// FinalizeBooking moves a booking from one status to another,
	// returning false when the row was no longer in the from status.
	FinalizeBooking(ctx context.Context, id string, from, to model.BookingStatus, decidedAt time.Time, approvedBy *string) (bool, error)
}

// Notifier receives fire-and-forget booking lifecycle notifications.
// Implementations must tolerate being called concurrently; the
// coordinator never blocks on them and ignores their failures.
type Notifier interface {
	BookingDecided(b model.Booking)
}

// Coordinator is the single entry point for booking state changes.
// It consults the policy resolver and the capacity ledger, then
// records the outcome through the booking store.  A seat is reserved
// at request time, not approval time, so the ledger's held count
// always reflects true seat commitment including not-yet-approved
// requests.
type Coordinator struct {
	members  MemberStore
	events   EventStore
	bookings BookingStore
	ledger   *Ledger
	notify   Notifier // optional
	now      func() time.Time
}

// NewCoordinator wires a coordinator.  notify may be nil.
func NewCoordinator(members MemberStore, events EventStore, bookings BookingStore, ledger *Ledger, notify Notifier) *Coordinator {
	return &Coordinator{
		members:  members,
		events:   events,
		bookings: bookings,
		ledger:   ledger,
		notify:   notify,
		now:      time.Now,
	}
}

// RequestBooking admits, queues or rejects a booking request for a
// member on an event.  A capacity rejection is a business outcome,
// not a failure: the call succeeds and the returned booking is in
// REJECTED state with the reason recorded.  Errors are reserved for
// invalid references, duplicate active bookings and infrastructure
// faults.
func (c *Coordinator) RequestBooking(ctx context.Context, eventID, memberID string) (*model.Booking, error) {
	member, err := c.members.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	event, err := c.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// Fast-path duplicate check.  Concurrent requests from the same
	// member can all pass it; the insert below is the authoritative
	// enforcement and fails the losers with ErrDuplicateBooking.
	dup, err := c.bookings.HasActiveBooking(ctx, event.ID, member.ID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	policy := ResolvePolicy(member.Groups)
	b := &model.Booking{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		MemberID:      member.ID,
		Status:        model.BookingPending,
		SeatConsuming: policy != model.PolicyCapacityExempt,
		CreatedAt:     c.now().UTC(),
	}

	var res *Reservation
	switch policy {
	case model.PolicyCapacityExempt:
		// No ledger interaction: the booking consumes no seat and is
		// admitted unconditionally.
		if err := Transition(b, model.BookingApproved, c.now()); err != nil {
			return nil, err
		}
	default:
		res, err = c.ledger.Reserve(ctx, event.ID)
		if errors.Is(err, ErrCapacityExceeded) {
			reason := "event at capacity"
			if terr := Transition(b, model.BookingRejected, c.now()); terr != nil {
				return nil, terr
			}
			b.Reason = &reason
			res = nil
		} else if err != nil {
			return nil, err
		} else if policy == model.PolicyAutoApprove {
			// Same atomic window as creation: no other request can
			// observe the booking pending.
			if err := Transition(b, model.BookingApproved, c.now()); err != nil {
				return nil, err
			}
		}
	}

	if err := c.bookings.InsertBooking(ctx, b); err != nil {
		if res != nil {
			if rerr := c.ledger.Release(ctx, res); rerr != nil {
				log.Printf("admission: unwind of reservation for event %s failed: %v", event.ID, rerr)
			}
		}
		return nil, err
	}

	if b.Status == model.BookingApproved {
		c.recordVisit(ctx, b)
	}
	c.dispatch(*b)
	return b, nil
}

// Approve moves a pending booking to APPROVED.  The seat was already
// reserved when the request was admitted, so approval is a pure
// state transition with no ledger interaction.  Fails with
// ErrNotPending when the booking is not PENDING.
func (c *Coordinator) Approve(ctx context.Context, bookingID, approvedBy string) (*model.Booking, error) {
	b, err := c.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := Transition(b, model.BookingApproved, c.now()); err != nil {
		return nil, err
	}
	ok, err := c.bookings.FinalizeBooking(ctx, b.ID, model.BookingPending, model.BookingApproved, *b.DecidedAt, &approvedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent approve or cancel.
		return nil, ErrNotPending
	}
	b.ApprovedBy = &approvedBy
	c.recordVisit(ctx, b)
	c.dispatch(*b)
	return b, nil
}

// Cancel terminates a PENDING or APPROVED booking and, when the
// booking was seat-consuming, returns its seat to the ledger.  Fails
// with ErrAlreadyTerminal for REJECTED or CANCELLED bookings.
func (c *Coordinator) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := c.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// One retry covers the PENDING booking that a concurrent approve
	// turns into APPROVED between our read and the conditional write;
	// cancellation is legal from both states.
	for attempt := 0; attempt < 2; attempt++ {
		prev := b.Status
		if err := Transition(b, model.BookingCancelled, c.now()); err != nil {
			return nil, err
		}
		ok, err := c.bookings.FinalizeBooking(ctx, b.ID, prev, model.BookingCancelled, *b.DecidedAt, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			if b.SeatConsuming {
				if rerr := c.ledger.Release(ctx, &Reservation{EventID: b.EventID}); rerr != nil {
					log.Printf("admission: release for booking %s failed: %v", b.ID, rerr)
					return nil, rerr
				}
			}
			c.dispatch(*b)
			return b, nil
		}
		b, err = c.bookings.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
	}
	if b.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}
	return nil, ErrInvalidTransition
}

// recordVisit appends a member visit for an approved booking.  Visit
// bookkeeping is best-effort and never fails the booking operation.
func (c *Coordinator) recordVisit(ctx context.Context, b *model.Booking) {
	if err := c.members.RecordVisit(ctx, b.MemberID, b.EventID, "booking_approve"); err != nil {
		log.Printf("admission: record visit for member %s failed: %v", b.MemberID, err)
	}
}

// dispatch hands the booking to the notifier on a separate goroutine
// so slow or unavailable consumers can never stall an admission.
func (c *Coordinator) dispatch(b model.Booking) {
	if c.notify == nil {
		return
	}
	go c.notify.BookingDecided(b)
}
