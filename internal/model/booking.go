package model

import "time"

// BookingStatus is the lifecycle state of a booking.  PENDING is the
// only initial state; REJECTED and CANCELLED are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCancelled
}

// Booking is a member's registration for an event.  Bookings are
// never deleted; terminal rows stay behind as the audit trail for
// exports and analytics.
//
// Fields:
//  ID            – uuid primary key.
//  EventID       – event being booked.
//  MemberID      – member the booking is for.
//  Status        – lifecycle state.
//  SeatConsuming – whether the booking counts against event capacity
//                  while PENDING or APPROVED.  False only for bookings
//                  admitted under CAPACITY_EXEMPT.
//  Reason        – why a booking was rejected (nullable).
//  ApprovedBy    – staff identifier that approved the booking (nullable).
//  CreatedAt     – when the booking request was admitted.
//  DecidedAt     – when the booking left PENDING (nullable).
type Booking struct {
	ID            string        // bookings.id
	EventID       string        // bookings.event_id
	MemberID      string        // bookings.member_id
	Status        BookingStatus // bookings.status
	SeatConsuming bool          // bookings.seat_consuming
	Reason        *string       // bookings.reason (nullable)
	ApprovedBy    *string       // bookings.approved_by (nullable)
	CreatedAt     time.Time     // bookings.created_at
	DecidedAt     *time.Time    // bookings.decided_at (nullable)
}
