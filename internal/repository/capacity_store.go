package repository

import "context"

// CapacityStore joins EventRepo and BookingRepo into the read surface
// the admission ledger primes from: the event's capacity and its
// committed held count.
type CapacityStore struct {
	Events   *EventRepo
	Bookings *BookingRepo
}

// NewCapacityStore returns a CapacityStore over the two repos.
func NewCapacityStore(events *EventRepo, bookings *BookingRepo) *CapacityStore {
	return &CapacityStore{Events: events, Bookings: bookings}
}

func (s *CapacityStore) EventCapacity(ctx context.Context, eventID string) (*int, error) {
	return s.Events.EventCapacity(ctx, eventID)
}

func (s *CapacityStore) HeldSeats(ctx context.Context, eventID string) (int, error) {
	return s.Bookings.HeldSeats(ctx, eventID)
}
