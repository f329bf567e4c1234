package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloft/gym-admin/internal/model"
)

func pendingBooking() *model.Booking {
	return &model.Booking{
		ID:            "b1",
		EventID:       "e1",
		MemberID:      "m1",
		Status:        model.BookingPending,
		SeatConsuming: true,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestTransitionApprove(t *testing.T) {
	b := pendingBooking()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, Transition(b, model.BookingApproved, at))
	assert.Equal(t, model.BookingApproved, b.Status)
	require.NotNil(t, b.DecidedAt)
	assert.Equal(t, at, *b.DecidedAt)
}

func TestTransitionRejectAndCancelFromPending(t *testing.T) {
	b := pendingBooking()
	require.NoError(t, Transition(b, model.BookingRejected, time.Now()))
	assert.Equal(t, model.BookingRejected, b.Status)

	b = pendingBooking()
	require.NoError(t, Transition(b, model.BookingCancelled, time.Now()))
	assert.Equal(t, model.BookingCancelled, b.Status)
}

func TestTransitionCancelFromApproved(t *testing.T) {
	b := pendingBooking()
	require.NoError(t, Transition(b, model.BookingApproved, time.Now()))
	require.NoError(t, Transition(b, model.BookingCancelled, time.Now()))
	assert.Equal(t, model.BookingCancelled, b.Status)
}

func TestTransitionApproveRequiresPending(t *testing.T) {
	b := pendingBooking()
	require.NoError(t, Transition(b, model.BookingApproved, time.Now()))

	err := Transition(b, model.BookingApproved, time.Now())
	assert.ErrorIs(t, err, ErrNotPending)

	err = Transition(b, model.BookingRejected, time.Now())
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestTransitionTerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []model.BookingStatus{model.BookingRejected, model.BookingCancelled} {
		b := pendingBooking()
		require.NoError(t, Transition(b, terminal, time.Now()))
		for _, target := range []model.BookingStatus{
			model.BookingApproved, model.BookingRejected, model.BookingCancelled,
		} {
			err := Transition(b, target, time.Now())
			assert.ErrorIs(t, err, ErrAlreadyTerminal, "from %s to %s", terminal, target)
		}
	}
}

func TestTransitionInvalidTarget(t *testing.T) {
	b := pendingBooking()
	err := Transition(b, model.BookingPending, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = Transition(b, model.BookingStatus("SETTLED"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Nil(t, b.DecidedAt)
}

func TestTransitionStampsUTC(t *testing.T) {
	b := pendingBooking()
	loc := time.FixedZone("UTC+3", 3*3600)
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, loc)

	require.NoError(t, Transition(b, model.BookingApproved, at))
	require.NotNil(t, b.DecidedAt)
	assert.Equal(t, time.UTC, b.DecidedAt.Location())
	assert.True(t, b.DecidedAt.Equal(at))
}
