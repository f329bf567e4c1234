package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloft/gym-admin/internal/model"
)

// memStores is an in-memory implementation of every store interface
// the coordinator uses, shared by one test.  HeldSeats derives from
// the booking rows the same way the SQL query does, so the ledger
// primes from realistic state.
type memStores struct {
	mu       sync.Mutex
	members  map[string]*model.Member
	events   map[string]*model.Event
	bookings map[string]*model.Booking
	visits   []string // member ids, in order

	insertErr error // forced failure for the next InsertBooking
}

func newMemStores() *memStores {
	return &memStores{
		members:  make(map[string]*model.Member),
		events:   make(map[string]*model.Event),
		bookings: make(map[string]*model.Booking),
	}
}

func (s *memStores) addMember(id string, groups ...model.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = &model.Member{ID: id, FullName: "Member " + id, Status: "active", Groups: groups}
}

func (s *memStores) addEvent(id string, capacity *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id] = &model.Event{ID: id, Name: "Event " + id, Capacity: capacity}
}

func (s *memStores) GetMember(_ context.Context, id string) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStores) RecordVisit(_ context.Context, memberID, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, memberID)
	return nil
}

func (s *memStores) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memStores) EventCapacity(_ context.Context, id string) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e.Capacity, nil
}

func (s *memStores) HeldSeats(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.EventID == eventID && b.SeatConsuming &&
			(b.Status == model.BookingPending || b.Status == model.BookingApproved) {
			n++
		}
	}
	return n, nil
}

func (s *memStores) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memStores) InsertBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		err := s.insertErr
		s.insertErr = nil
		return err
	}
	// Mirror the unique index over active bookings: at most one
	// non-terminal row per (event, member).
	if !b.Status.Terminal() {
		for _, prev := range s.bookings {
			if prev.EventID == b.EventID && prev.MemberID == b.MemberID && !prev.Status.Terminal() {
				return ErrDuplicateBooking
			}
		}
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStores) HasActiveBooking(_ context.Context, eventID, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.EventID == eventID && b.MemberID == memberID && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStores) FinalizeBooking(_ context.Context, id string, from, to model.BookingStatus, decidedAt time.Time, approvedBy *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	t := decidedAt
	b.DecidedAt = &t
	if approvedBy != nil {
		b.ApprovedBy = approvedBy
	}
	return true, nil
}

// chanNotifier records decisions on a channel so tests can wait for
// the coordinator's fire-and-forget goroutine.
type chanNotifier struct{ ch chan model.Booking }

func newChanNotifier() *chanNotifier {
	return &chanNotifier{ch: make(chan model.Booking, 16)}
}

func (n *chanNotifier) BookingDecided(b model.Booking) { n.ch <- b }

func (n *chanNotifier) wait(t *testing.T) model.Booking {
	t.Helper()
	select {
	case b := <-n.ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no booking notification received")
		return model.Booking{}
	}
}

func newTestCoordinator(s *memStores, notify Notifier) *Coordinator {
	return NewCoordinator(s, s, s, NewLedger(s), notify)
}

func TestRequestBookingPendingByDefault(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(10))
	notify := newChanNotifier()
	c := newTestCoordinator(s, notify)

	b, err := c.RequestBooking(context.Background(), "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.True(t, b.SeatConsuming)
	assert.Nil(t, b.DecidedAt)
	assert.NotEmpty(t, b.ID)

	got := notify.wait(t)
	assert.Equal(t, b.ID, got.ID)

	held, err := c.ledger.Held(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, held)
	assert.Empty(t, s.visits, "pending booking must not record a visit")
}

func TestRequestBookingCapacityRejection(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addMember("m2")
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	first, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, first.Status)

	// The rejection is an outcome, not an error: the row exists with
	// the reason recorded.
	second, err := c.RequestBooking(ctx, "e1", "m2")
	require.NoError(t, err)
	assert.Equal(t, model.BookingRejected, second.Status)
	require.NotNil(t, second.Reason)
	assert.Equal(t, "event at capacity", *second.Reason)
	require.NotNil(t, second.DecidedAt)

	stored, err := s.GetBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingRejected, stored.Status)
}

func TestRequestBookingConcurrentLastSeat(t *testing.T) {
	const contenders = 20
	s := newMemStores()
	s.addEvent("e1", intPtr(1))
	for i := 0; i < contenders; i++ {
		s.addMember(string(rune('a' + i)))
	}
	c := newTestCoordinator(s, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	rejected := 0
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(memberID string) {
			defer wg.Done()
			b, err := c.RequestBooking(context.Background(), "e1", memberID)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if b.Status == model.BookingRejected {
				rejected++
			} else {
				admitted++
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Equal(t, 1, admitted, "exactly one request may win the last seat")
	assert.Equal(t, contenders-1, rejected)
}

func TestRequestBookingAutoApprove(t *testing.T) {
	s := newMemStores()
	s.addMember("m1", model.Group{ID: "regulars", Policy: model.PolicyAutoApprove})
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)

	b, err := c.RequestBooking(context.Background(), "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, b.Status)
	assert.True(t, b.SeatConsuming)
	require.NotNil(t, b.DecidedAt)
	assert.False(t, b.DecidedAt.Before(b.CreatedAt))

	held, err := c.ledger.Held(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, held)
	assert.Equal(t, []string{"m1"}, s.visits)
}

func TestRequestBookingCapacityExempt(t *testing.T) {
	s := newMemStores()
	s.addMember("coach", model.Group{ID: "staff", Policy: model.PolicyCapacityExempt})
	s.addMember("m1")
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	// Fill the event first.
	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	require.Equal(t, model.BookingPending, b.Status)

	// Exempt members are admitted past a full event without a seat.
	eb, err := c.RequestBooking(ctx, "e1", "coach")
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, eb.Status)
	assert.False(t, eb.SeatConsuming)

	held, err := c.ledger.Held(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, held, "exempt booking must not touch the ledger")
	assert.Equal(t, []string{"coach"}, s.visits)
}

func TestRequestBookingDuplicateActive(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)

	_, err = c.RequestBooking(ctx, "e1", "m1")
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	// After cancellation the member can book again.
	_, err = c.Cancel(ctx, b.ID)
	require.NoError(t, err)
	again, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, again.Status)
}

func TestRequestBookingConcurrentDuplicates(t *testing.T) {
	// The pre-insert duplicate check can race; the store's insert is
	// the authoritative guard.  All contenders but one must fail with
	// ErrDuplicateBooking and leave no seat behind.
	const contenders = 8
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", nil) // unlimited, so capacity never interferes

	c := newTestCoordinator(s, nil)
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	duplicates := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.RequestBooking(context.Background(), "e1", "m1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicateBooking):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one active booking per member per event")
	assert.Equal(t, contenders-1, duplicates)

	// Losing requests released their reservations.
	held, err := c.ledger.Held(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, held)
}

func TestRequestBookingUnknownRefs(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	_, err := c.RequestBooking(ctx, "e1", "ghost")
	assert.ErrorIs(t, err, ErrMemberNotFound)
	_, err = c.RequestBooking(ctx, "ghost", "m1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRequestBookingInsertFailureUnwindsSeat(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addMember("m2")
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	s.mu.Lock()
	s.insertErr = context.DeadlineExceeded
	s.mu.Unlock()
	_, err := c.RequestBooking(ctx, "e1", "m1")
	require.Error(t, err)

	// The reserved seat was released, so the next request succeeds.
	b, err := c.RequestBooking(ctx, "e1", "m2")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
}

func TestApprove(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)

	approved, err := c.Approve(ctx, b.ID, "7")
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "7", *approved.ApprovedBy)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, []string{"m1"}, s.visits)

	// Approval holds no extra seat: one was reserved at request time.
	held, err := c.ledger.Held(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, held)
}

func TestApproveTwice(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	_, err = c.Approve(ctx, b.ID, "7")
	require.NoError(t, err)

	_, err = c.Approve(ctx, b.ID, "8")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestApproveUnknownBooking(t *testing.T) {
	s := newMemStores()
	c := newTestCoordinator(s, nil)
	_, err := c.Approve(context.Background(), "ghost", "7")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelPendingFreesSeat(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addMember("m2")
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)

	// Event full: m2 is rejected.
	rej, err := c.RequestBooking(ctx, "e1", "m2")
	require.NoError(t, err)
	require.Equal(t, model.BookingRejected, rej.Status)

	cancelled, err := c.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	// The freed seat admits the retry.
	retry, err := c.RequestBooking(ctx, "e1", "m2")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, retry.Status)
}

func TestCancelApproved(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	_, err = c.Approve(ctx, b.ID, "7")
	require.NoError(t, err)

	cancelled, err := c.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	held, err := c.ledger.Held(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 0, held)
}

func TestCancelTerminal(t *testing.T) {
	s := newMemStores()
	s.addMember("m1")
	s.addEvent("e1", intPtr(5))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "m1")
	require.NoError(t, err)
	_, err = c.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, err = c.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelExemptSkipsLedger(t *testing.T) {
	s := newMemStores()
	s.addMember("coach", model.Group{ID: "staff", Policy: model.PolicyCapacityExempt})
	s.addEvent("e1", intPtr(1))
	c := newTestCoordinator(s, nil)
	ctx := context.Background()

	b, err := c.RequestBooking(ctx, "e1", "coach")
	require.NoError(t, err)
	require.False(t, b.SeatConsuming)

	// Cancelling a non-seat-consuming booking must not decrement a
	// count it never incremented.
	_, err = c.Cancel(ctx, b.ID)
	require.NoError(t, err)
	held, err := c.ledger.Held(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 0, held)
}
