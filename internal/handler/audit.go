package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// AuditHandler exposes the append-only system log.
type AuditHandler struct {
	Audit *repository.AuditRepo
}

func NewAuditHandler(audit *repository.AuditRepo) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

type auditResp struct {
	ID       uint64    `json:"id"`
	TS       time.Time `json:"ts"`
	Actor    *string   `json:"actor,omitempty"`
	Action   string    `json:"action"`
	Entity   *string   `json:"entity,omitempty"`
	EntityID *string   `json:"entity_id,omitempty"`
	Status   *string   `json:"status,omitempty"`
	Message  *string   `json:"message,omitempty"`
}

func toAuditResp(e *model.AuditEntry) auditResp {
	return auditResp{
		ID: e.ID, TS: e.TS, Actor: e.Actor, Action: e.Action,
		Entity: e.Entity, EntityID: e.EntityID, Status: e.Status, Message: e.Message,
	}
}

// List handles GET /v1/audit, newest first, capped at 500 entries.
func (h *AuditHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	items, err := h.Audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]auditResp, 0, len(items))
	for i := range items {
		out = append(out, toAuditResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
