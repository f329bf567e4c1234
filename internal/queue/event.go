// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingDecidedEvent is published whenever the admission engine settles a
// booking: approved, rejected at capacity, or cancelled. It contains enough
// information for downstream consumers to log, notify, or trigger analytics
// without querying the primary database.
type BookingDecidedEvent struct {
	BookingID     string  `json:"booking_id"`
	EventID       string  `json:"event_id"`
	MemberID      string  `json:"member_id"`
	Status        string  `json:"status"`
	SeatConsuming bool    `json:"seat_consuming"`
	Reason        *string `json:"reason,omitempty"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	DecidedAt     string  `json:"decided_at"`
}
