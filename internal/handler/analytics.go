package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/repository"
)

// AnalyticsHandler serves booking aggregates and live event
// utilization for the dashboard.
type AnalyticsHandler struct {
	Bookings *repository.BookingRepo
	Events   *repository.EventRepo
	Ledger   *admission.Ledger
}

func NewAnalyticsHandler(bookings *repository.BookingRepo, events *repository.EventRepo, ledger *admission.Ledger) *AnalyticsHandler {
	return &AnalyticsHandler{Bookings: bookings, Events: events, Ledger: ledger}
}

// BookingCounts handles GET /v1/analytics/bookings.  With ?event_id it
// returns one event's status breakdown; without it, totals by status.
// ?by=event switches to the per-event breakdown.
func (h *AnalyticsHandler) BookingCounts(c echo.Context) error {
	ctx := c.Request().Context()
	if strings.EqualFold(c.QueryParam("by"), "event") {
		items, err := h.Bookings.CountsByEvent(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
	items, err := h.Bookings.CountsByStatus(ctx, strings.TrimSpace(c.QueryParam("event_id")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// EventUtilization handles GET /v1/analytics/events/:id/utilization
// and reports held seats against capacity straight from the ledger.
func (h *AnalyticsHandler) EventUtilization(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	e, err := h.Events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, admission.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	held, err := h.Ledger.Held(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ledger error"})
	}

	resp := echo.Map{
		"event_id": id,
		"held":     held,
	}
	if e.Capacity != nil {
		resp["capacity"] = *e.Capacity
		resp["remaining"] = *e.Capacity - held
	}
	return c.JSON(http.StatusOK, resp)
}
