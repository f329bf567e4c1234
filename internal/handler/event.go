package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// EventHandler covers event CRUD.  Capacity edits are pushed into the
// admission ledger so in-flight reservations see the new limit.
type EventHandler struct {
	Events *repository.EventRepo
	Ledger *admission.Ledger
	Audit  *repository.AuditRepo
}

func NewEventHandler(events *repository.EventRepo, ledger *admission.Ledger, audit *repository.AuditRepo) *EventHandler {
	return &EventHandler{Events: events, Ledger: ledger, Audit: audit}
}

type eventReq struct {
	Name             string  `json:"name"`
	ClassTypeID      string  `json:"class_type_id"`
	GroupID          *string `json:"group_id"`
	StartsAt         string  `json:"starts_at"` // RFC3339
	EndsAt           string  `json:"ends_at"`   // RFC3339
	Recurrence       string  `json:"recurrence"`
	Capacity         *int    `json:"capacity"`
	IsSpecial        bool    `json:"is_special"`
	RequiresApproval bool    `json:"requires_approval"`
	Description      *string `json:"description"`
}

type eventResp struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ClassTypeID      string    `json:"class_type_id"`
	GroupID          *string   `json:"group_id,omitempty"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	Recurrence       string    `json:"recurrence"`
	Capacity         *int      `json:"capacity,omitempty"`
	IsSpecial        bool      `json:"is_special"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedBy        *string   `json:"created_by,omitempty"`
	Description      *string   `json:"description,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toEventResp(e *model.Event) eventResp {
	return eventResp{
		ID:               e.ID,
		Name:             e.Name,
		ClassTypeID:      e.ClassTypeID,
		GroupID:          e.GroupID,
		StartsAt:         e.Start,
		EndsAt:           e.End,
		Recurrence:       e.Recurrence,
		Capacity:         e.Capacity,
		IsSpecial:        e.IsSpecial,
		RequiresApproval: e.RequiresApproval,
		CreatedBy:        e.CreatedBy,
		Description:      e.Description,
		UpdatedAt:        e.UpdatedAt,
	}
}

func (h *EventHandler) bindEvent(c echo.Context, req *eventReq, e *model.Event) error {
	e.Name = strings.TrimSpace(req.Name)
	e.ClassTypeID = strings.TrimSpace(req.ClassTypeID)
	if e.Name == "" || e.ClassTypeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and class_type_id are required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at"})
	}
	end, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	e.Start, e.End = start, end
	e.Recurrence = strings.ToLower(strings.TrimSpace(req.Recurrence))
	if e.Recurrence == "" {
		e.Recurrence = "none"
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must not be negative"})
	}
	e.Capacity = req.Capacity
	e.GroupID = req.GroupID
	e.IsSpecial = req.IsSpecial
	e.RequiresApproval = req.RequiresApproval
	e.Description = req.Description
	return nil
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e := &model.Event{ID: uuid.NewString(), CreatedBy: actorString(c)}
	if resp := h.bindEvent(c, &req, e); resp != nil {
		return resp
	}

	if err := h.Events.Create(c.Request().Context(), e); err != nil {
		if errors.Is(err, repository.ErrBadReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown class_type_id or group_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}

	created, err := h.Events.GetEvent(c.Request().Context(), e.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	writeAudit(c, h.Audit, "event.create", "event", e.ID, "", e.Name)
	return c.JSON(http.StatusCreated, toEventResp(created))
}

// Update handles PUT /v1/events/:id.  A capacity change is forwarded
// to the ledger; shrinking below the current held count is allowed and
// simply blocks new admissions until cancellations catch up.
func (h *EventHandler) Update(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e := &model.Event{ID: c.Param("id")}
	if resp := h.bindEvent(c, &req, e); resp != nil {
		return resp
	}

	if err := h.Events.Update(c.Request().Context(), e); err != nil {
		switch {
		case errors.Is(err, admission.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrBadReference):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown class_type_id or group_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Ledger.SetCapacity(e.ID, e.Capacity)

	updated, err := h.Events.GetEvent(c.Request().Context(), e.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	writeAudit(c, h.Audit, "event.update", "event", e.ID, "", "")
	return c.JSON(http.StatusOK, toEventResp(updated))
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	e, err := h.Events.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, admission.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toEventResp(e))
}

// List handles GET /v1/events with an optional from filter
// (RFC3339) and pagination.
func (h *EventHandler) List(c echo.Context) error {
	page, pageSize := pageParams(c)
	var from time.Time
	if s := strings.TrimSpace(c.QueryParam("from")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
		}
		from = t
	}

	items, total, err := h.Events.List(c.Request().Context(), from, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]eventResp, 0, len(items))
	for i := range items {
		out = append(out, toEventResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
