package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
)

// stubCoordinator returns canned results so handler tests exercise
// status mapping without a database or ledger.
type stubCoordinator struct {
	booking *model.Booking
	err     error

	gotEventID  string
	gotMemberID string
	gotBooking  string
	gotApprover string
}

func (s *stubCoordinator) RequestBooking(_ context.Context, eventID, memberID string) (*model.Booking, error) {
	s.gotEventID, s.gotMemberID = eventID, memberID
	return s.booking, s.err
}

func (s *stubCoordinator) Approve(_ context.Context, bookingID, approvedBy string) (*model.Booking, error) {
	s.gotBooking, s.gotApprover = bookingID, approvedBy
	return s.booking, s.err
}

func (s *stubCoordinator) Cancel(_ context.Context, bookingID string) (*model.Booking, error) {
	s.gotBooking = bookingID
	return s.booking, s.err
}

func sampleBooking(status model.BookingStatus) *model.Booking {
	now := time.Now().UTC()
	b := &model.Booking{
		ID:            "b-1",
		EventID:       "e-1",
		MemberID:      "m-1",
		Status:        status,
		SeatConsuming: true,
		CreatedAt:     now,
	}
	if status != model.BookingPending {
		b.DecidedAt = &now
	}
	return b
}

func newBookingCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBookingCreateApproved(t *testing.T) {
	stub := &stubCoordinator{booking: sampleBooking(model.BookingApproved)}
	h := &BookingHandler{Coord: stub}

	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
		`{"event_id":"e-1","member_id":"m-1"}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "e-1", stub.gotEventID)
	assert.Equal(t, "m-1", stub.gotMemberID)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "APPROVED", resp["status"])
}

func TestBookingCreateCapacityRejectionIsStillCreated(t *testing.T) {
	b := sampleBooking(model.BookingRejected)
	reason := "event at capacity"
	b.Reason = &reason
	h := &BookingHandler{Coord: &stubCoordinator{booking: b}}

	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
		`{"event_id":"e-1","member_id":"m-1"}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "REJECTED", resp["status"])
	assert.Equal(t, reason, resp["reason"])
}

func TestBookingCreateErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown member", admission.ErrMemberNotFound, http.StatusBadRequest},
		{"unknown event", admission.ErrEventNotFound, http.StatusBadRequest},
		{"duplicate booking", admission.ErrDuplicateBooking, http.StatusConflict},
		{"consistency fault", admission.ErrInternalConsistency, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &BookingHandler{Coord: &stubCoordinator{err: tc.err}}
			c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
				`{"event_id":"e-1","member_id":"m-1"}`)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestBookingCreateValidation(t *testing.T) {
	h := &BookingHandler{Coord: &stubCoordinator{}}
	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings", `{"event_id":" "}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingApprove(t *testing.T) {
	stub := &stubCoordinator{booking: sampleBooking(model.BookingApproved)}
	h := &BookingHandler{Coord: stub}

	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings/b-1/approve", "")
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	c.Set("staff_id", float64(7)) // as the JWT middleware stores it
	require.NoError(t, h.Approve(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b-1", stub.gotBooking)
	assert.Equal(t, "7", stub.gotApprover)
}

func TestBookingApproveConflicts(t *testing.T) {
	for _, err := range []error{admission.ErrNotPending, admission.ErrAlreadyTerminal} {
		h := &BookingHandler{Coord: &stubCoordinator{err: err}}
		c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings/b-1/approve", "")
		c.SetParamNames("id")
		c.SetParamValues("b-1")
		require.NoError(t, h.Approve(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	}
}

func TestBookingApproveNotFound(t *testing.T) {
	h := &BookingHandler{Coord: &stubCoordinator{err: admission.ErrBookingNotFound}}
	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings/ghost/approve", "")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.Approve(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingCancel(t *testing.T) {
	stub := &stubCoordinator{booking: sampleBooking(model.BookingCancelled)}
	h := &BookingHandler{Coord: stub}

	c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings/b-1/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp["status"])
}

func TestBookingCancelConflicts(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{admission.ErrAlreadyTerminal, http.StatusConflict},
		{admission.ErrInvalidTransition, http.StatusConflict},
		{admission.ErrInternalConsistency, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := &BookingHandler{Coord: &stubCoordinator{err: tc.err}}
		c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings/b-1/cancel", "")
		c.SetParamNames("id")
		c.SetParamValues("b-1")
		require.NoError(t, h.Cancel(c))
		assert.Equal(t, tc.code, rec.Code)
	}
}
