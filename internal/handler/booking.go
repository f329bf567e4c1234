package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// BookingCoordinator is the slice of the admission coordinator the
// handler needs.  Kept as an interface so tests can stub decisions.
type BookingCoordinator interface {
	RequestBooking(ctx context.Context, eventID, memberID string) (*model.Booking, error)
	Approve(ctx context.Context, bookingID, approvedBy string) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)
}

// BookingHandler exposes the admission engine over HTTP.
type BookingHandler struct {
	Coord    BookingCoordinator
	Bookings *repository.BookingRepo
	Audit    *repository.AuditRepo
}

func NewBookingHandler(coord BookingCoordinator, bookings *repository.BookingRepo, audit *repository.AuditRepo) *BookingHandler {
	return &BookingHandler{Coord: coord, Bookings: bookings, Audit: audit}
}

type bookingReq struct {
	EventID  string `json:"event_id"`
	MemberID string `json:"member_id"`
}

type bookingResp struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	MemberID      string     `json:"member_id"`
	Status        string     `json:"status"`
	SeatConsuming bool       `json:"seat_consuming"`
	Reason        *string    `json:"reason,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:            b.ID,
		EventID:       b.EventID,
		MemberID:      b.MemberID,
		Status:        string(b.Status),
		SeatConsuming: b.SeatConsuming,
		Reason:        b.Reason,
		ApprovedBy:    b.ApprovedBy,
		CreatedAt:     b.CreatedAt,
		DecidedAt:     b.DecidedAt,
	}
}

// Create handles POST /v1/bookings.  A capacity rejection still
// returns 201: the booking row exists, in REJECTED state, and the
// caller reads the outcome from the status field.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EventID = strings.TrimSpace(req.EventID)
	req.MemberID = strings.TrimSpace(req.MemberID)
	if req.EventID == "" || req.MemberID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and member_id required"})
	}

	b, err := h.Coord.RequestBooking(c.Request().Context(), req.EventID, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, admission.ErrMemberNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown member"})
		case errors.Is(err, admission.ErrEventNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event"})
		case errors.Is(err, admission.ErrDuplicateBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": "member already has an active booking for this event"})
		case errors.Is(err, admission.ErrInternalConsistency):
			log.Printf("booking: ledger consistency fault on request: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "admission state inconsistent"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	writeAudit(c, h.Audit, "booking.request", "booking", b.ID, string(b.Status), "")
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// Approve handles POST /v1/bookings/:id/approve.
func (h *BookingHandler) Approve(c echo.Context) error {
	id := c.Param("id")
	actor := actorString(c)
	approvedBy := ""
	if actor != nil {
		approvedBy = *actor
	}

	b, err := h.Coord.Approve(c.Request().Context(), id, approvedBy)
	if err != nil {
		switch {
		case errors.Is(err, admission.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, admission.ErrNotPending), errors.Is(err, admission.ErrAlreadyTerminal):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
		case errors.Is(err, admission.ErrInternalConsistency):
			log.Printf("booking: ledger consistency fault on approve %s: %v", id, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "admission state inconsistent"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}

	writeAudit(c, h.Audit, "booking.approve", "booking", b.ID, string(b.Status), "")
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id := c.Param("id")

	b, err := h.Coord.Cancel(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, admission.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, admission.ErrAlreadyTerminal):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already settled"})
		case errors.Is(err, admission.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be cancelled"})
		case errors.Is(err, admission.ErrInternalConsistency):
			log.Printf("booking: ledger consistency fault on cancel %s: %v", id, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "admission state inconsistent"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	writeAudit(c, h.Audit, "booking.cancel", "booking", b.ID, string(b.Status), "")
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, admission.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// List handles GET /v1/bookings with event_id, member_id and status
// filters plus pagination.
func (h *BookingHandler) List(c echo.Context) error {
	page, pageSize := pageParams(c)
	f := repository.BookingFilter{
		EventID:  strings.TrimSpace(c.QueryParam("event_id")),
		MemberID: strings.TrimSpace(c.QueryParam("member_id")),
		Page:     page,
		PageSize: pageSize,
	}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		st := model.BookingStatus(s)
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
		}
		f.Status = st
	}

	items, total, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]bookingResp, 0, len(items))
	for i := range items {
		out = append(out, toBookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
