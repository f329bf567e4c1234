package admission

import (
	"context"
	"sync"
)

// CapacityStore supplies the ledger with committed state for an
// event: its configured capacity and the number of seats currently
// held by non-cancelled seat-consuming bookings.  Both are read once,
// inside the event's critical section, the first time the event is
// touched.
type CapacityStore interface {
	// EventCapacity returns the event's capacity, nil meaning the
	// event is not capacity-limited.  Must return ErrEventNotFound for
	// unknown events.
	EventCapacity(ctx context.Context, eventID string) (*int, error)
	// HeldSeats counts seat-consuming bookings in PENDING or APPROVED
	// for the event.
	HeldSeats(ctx context.Context, eventID string) (int, error)
}

// Reservation is the handle returned by a successful Reserve.  It
// must be passed back to Release exactly once; releasing it twice is
// a programming error and fails with ErrInternalConsistency.
type Reservation struct {
	EventID  string
	released bool
}

// Ledger tracks, per event, the number of seats held against the
// event's capacity.  Each event has its own counter and its own
// mutex, so reservations for different events never contend.  The
// counter is primed lazily from committed booking rows; after that
// the in-memory count is authoritative and every mutation passes
// through the per-event lock.
type Ledger struct {
	store CapacityStore

	mu       sync.Mutex // guards counters map only
	counters map[string]*eventCounter
}

// eventCounter is the serialization point for one event.  Its mutex
// is the only boundary through which held may change.
type eventCounter struct {
	mu       sync.Mutex
	primed   bool
	capacity *int // nil = unlimited
	held     int
}

// NewLedger returns a Ledger backed by the given store.
func NewLedger(store CapacityStore) *Ledger {
	return &Ledger{store: store, counters: make(map[string]*eventCounter)}
}

// counterFor returns the counter for an event, creating it on first
// use.  The registry lock is held only for the map access, never
// across store reads, so unrelated events cannot serialize each
// other here.
func (l *Ledger) counterFor(eventID string) *eventCounter {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.counters[eventID]
	if !ok {
		c = &eventCounter{}
		l.counters[eventID] = c
	}
	return c
}

// prime loads capacity and the committed held count.  Callers must
// hold c.mu.
func (l *Ledger) prime(ctx context.Context, eventID string, c *eventCounter) error {
	if c.primed {
		return nil
	}
	cap, err := l.store.EventCapacity(ctx, eventID)
	if err != nil {
		return err
	}
	held, err := l.store.HeldSeats(ctx, eventID)
	if err != nil {
		return err
	}
	c.capacity = cap
	c.held = held
	c.primed = true
	return nil
}

// Reserve claims one seat for the event.  It is atomic with respect
// to concurrent callers for the same event: at most one caller can
// take the final seat.  On success the held count has already been
// incremented and the returned reservation must eventually be
// released exactly once (by cancelling the booking, or by unwinding
// a failed write).  When the event is full it returns
// ErrCapacityExceeded and holds nothing.
func (l *Ledger) Reserve(ctx context.Context, eventID string) (*Reservation, error) {
	c := l.counterFor(eventID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := l.prime(ctx, eventID, c); err != nil {
		return nil, err
	}
	if c.held < 0 {
		return nil, ErrInternalConsistency
	}
	if c.capacity != nil && c.held >= *c.capacity {
		return nil, ErrCapacityExceeded
	}
	c.held++
	return &Reservation{EventID: eventID}, nil
}

// Release returns a previously reserved seat.  Releasing the same
// reservation twice, or releasing when no seats are held, indicates
// a bug in the caller and fails with ErrInternalConsistency rather
// than silently correcting the count.
func (l *Ledger) Release(ctx context.Context, res *Reservation) error {
	if res == nil || res.released {
		return ErrInternalConsistency
	}
	c := l.counterFor(res.EventID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed {
		// The counter has never been primed in this process, so the
		// committed rows the first prime will read already reflect the
		// cancelling write that precedes this release.  Consuming the
		// handle without decrementing keeps the count honest.
		res.released = true
		return nil
	}
	if c.held <= 0 {
		return ErrInternalConsistency
	}
	c.held--
	res.released = true
	return nil
}

// Held reports the current held count for an event, priming the
// counter if needed.  Exposed for analytics and tests.
func (l *Ledger) Held(ctx context.Context, eventID string) (int, error) {
	c := l.counterFor(eventID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := l.prime(ctx, eventID, c); err != nil {
		return 0, err
	}
	return c.held, nil
}

// SetCapacity updates the cached capacity after an event edit.  The
// held count is untouched: existing admissions stay admitted even if
// the new capacity is below held, and new reservations are refused
// until cancellations bring held back under the limit.
func (l *Ledger) SetCapacity(eventID string, capacity *int) {
	c := l.counterFor(eventID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.primed {
		c.capacity = capacity
	}
}
