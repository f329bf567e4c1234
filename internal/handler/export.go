package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

type memberLister interface {
	ListAll(ctx context.Context) ([]model.Member, error)
}

type eventLister interface {
	ListAll(ctx context.Context) ([]model.Event, error)
}

type bookingLister interface {
	ListAll(ctx context.Context) ([]model.Booking, error)
}

// ExportHandler streams CSV snapshots of the core tables for
// spreadsheet-driven reporting.
type ExportHandler struct {
	MemberRepo  memberLister
	EventRepo   eventLister
	BookingRepo bookingLister
}

func NewExportHandler(members *repository.MemberRepo, events *repository.EventRepo, bookings *repository.BookingRepo) *ExportHandler {
	return &ExportHandler{MemberRepo: members, EventRepo: events, BookingRepo: bookings}
}

func beginCSV(c echo.Context, filename string) *csv.Writer {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
	return csv.NewWriter(c.Response())
}

func csvStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func csvDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Members handles GET /v1/exports/members.csv.
func (h *ExportHandler) Members(c echo.Context) error {
	items, err := h.MemberRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	w := beginCSV(c, "members.csv")
	_ = w.Write([]string{"id", "full_name", "gender", "dob", "phone", "email",
		"membership_type", "join_date", "last_active", "attendance_count", "status", "source"})
	for i := range items {
		m := &items[i]
		_ = w.Write([]string{
			m.ID, m.FullName, csvStr(m.Gender), csvDate(m.DOB), csvStr(m.Phone), csvStr(m.Email),
			csvStr(m.MembershipType), csvDate(m.JoinDate), csvTime(m.LastActive),
			strconv.Itoa(m.AttendanceCount), m.Status, csvStr(m.Source),
		})
	}
	w.Flush()
	return w.Error()
}

// Events handles GET /v1/exports/events.csv.
func (h *ExportHandler) Events(c echo.Context) error {
	items, err := h.EventRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	w := beginCSV(c, "events.csv")
	_ = w.Write([]string{"id", "name", "class_type_id", "group_id", "starts_at", "ends_at",
		"recurrence", "capacity", "is_special", "requires_approval"})
	for i := range items {
		e := &items[i]
		capacity := ""
		if e.Capacity != nil {
			capacity = strconv.Itoa(*e.Capacity)
		}
		_ = w.Write([]string{
			e.ID, e.Name, e.ClassTypeID, csvStr(e.GroupID),
			e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
			e.Recurrence, capacity, strconv.FormatBool(e.IsSpecial), strconv.FormatBool(e.RequiresApproval),
		})
	}
	w.Flush()
	return w.Error()
}

// Bookings handles GET /v1/exports/bookings.csv.
func (h *ExportHandler) Bookings(c echo.Context) error {
	items, err := h.BookingRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	w := beginCSV(c, "bookings.csv")
	_ = w.Write([]string{"id", "event_id", "member_id", "status", "seat_consuming",
		"reason", "approved_by", "created_at", "decided_at"})
	for i := range items {
		b := &items[i]
		created := b.CreatedAt
		_ = w.Write([]string{
			b.ID, b.EventID, b.MemberID, string(b.Status), strconv.FormatBool(b.SeatConsuming),
			csvStr(b.Reason), csvStr(b.ApprovedBy), csvTime(&created), csvTime(b.DecidedAt),
		})
	}
	w.Flush()
	return w.Error()
}
