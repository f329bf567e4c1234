package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloft/gym-admin/internal/model"
)

// Stub listers serve canned rows so export tests run without a
// database.
type stubMemberListers struct {
	members []model.Member
	err     error
}

func (s *stubMemberListers) ListAll(_ context.Context) ([]model.Member, error) {
	return s.members, s.err
}

type stubEventListers struct {
	events []model.Event
	err    error
}

func (s *stubEventListers) ListAll(_ context.Context) ([]model.Event, error) {
	return s.events, s.err
}

type stubBookingListers struct {
	bookings []model.Booking
	err      error
}

func (s *stubBookingListers) ListAll(_ context.Context) ([]model.Booking, error) {
	return s.bookings, s.err
}

func TestExportMembersCSV(t *testing.T) {
	email := "ana@example.com"
	m := model.Member{
		ID:              "m-1",
		FullName:        "Ana Silva",
		Email:           &email,
		AttendanceCount: 3,
		Status:          "active",
	}
	h := &ExportHandler{MemberRepo: &stubMemberListers{members: []model.Member{m}}}

	c, rec := newBookingCtx(t, http.MethodGet, "/v1/exports/members.csv", "")
	require.NoError(t, h.Members(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="members.csv"`)

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "m-1", rows[1][0])
	assert.Equal(t, "Ana Silva", rows[1][1])
	assert.Equal(t, "ana@example.com", rows[1][5])
	assert.Equal(t, "3", rows[1][9])
	// Nil optional fields export as empty cells.
	assert.Equal(t, "", rows[1][2])
}

func TestExportEventsCSV(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	capacity := 12
	e := model.Event{
		ID:          "e-1",
		Name:        "Evening Spin",
		ClassTypeID: "spin",
		Start:       start,
		End:         start.Add(time.Hour),
		Recurrence:  "none",
		Capacity:    &capacity,
	}
	h := &ExportHandler{EventRepo: &stubEventListers{events: []model.Event{e}}}

	c, rec := newBookingCtx(t, http.MethodGet, "/v1/exports/events.csv", "")
	require.NoError(t, h.Events(c))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "e-1", rows[1][0])
	assert.Equal(t, "2026-03-01T18:00:00Z", rows[1][4])
	assert.Equal(t, "12", rows[1][7])
}

func TestExportBookingsCSV(t *testing.T) {
	b := sampleBooking(model.BookingApproved)
	h := &ExportHandler{BookingRepo: &stubBookingListers{bookings: []model.Booking{*b}}}

	c, rec := newBookingCtx(t, http.MethodGet, "/v1/exports/bookings.csv", "")
	require.NoError(t, h.Bookings(c))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[1][0])
	assert.Equal(t, "APPROVED", rows[1][3])
	assert.Equal(t, "true", rows[1][4])
}

func TestExportListFailure(t *testing.T) {
	h := &ExportHandler{MemberRepo: &stubMemberListers{err: context.DeadlineExceeded}}
	c, rec := newBookingCtx(t, http.MethodGet, "/v1/exports/members.csv", "")
	require.NoError(t, h.Members(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
