package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// GroupHandler covers group CRUD.  A group's approval policy is the
// lever staff use to control how its members' bookings are admitted.
type GroupHandler struct {
	Groups *repository.GroupRepo
	Audit  *repository.AuditRepo
}

func NewGroupHandler(groups *repository.GroupRepo, audit *repository.AuditRepo) *GroupHandler {
	return &GroupHandler{Groups: groups, Audit: audit}
}

type groupReq struct {
	ID     string `json:"id"` // slug, required on create
	Name   string `json:"name"`
	Policy string `json:"approval_policy"`
}

func (h *GroupHandler) bindGroup(c echo.Context, req *groupReq, g *model.Group) error {
	g.Name = strings.TrimSpace(req.Name)
	if g.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	g.Policy = model.ApprovalPolicy(strings.ToUpper(strings.TrimSpace(req.Policy)))
	if g.Policy == "" {
		g.Policy = model.PolicyNone
	}
	if !g.Policy.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "approval_policy must be NONE, AUTO_APPROVE or CAPACITY_EXEMPT"})
	}
	return nil
}

// Create handles POST /v1/groups.
func (h *GroupHandler) Create(c echo.Context) error {
	var req groupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	g := model.Group{ID: strings.TrimSpace(req.ID)}
	if g.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}
	if resp := h.bindGroup(c, &req, &g); resp != nil {
		return resp
	}

	if err := h.Groups.Create(c.Request().Context(), &g); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "group id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create group"})
	}
	writeAudit(c, h.Audit, "group.create", "group", g.ID, "", string(g.Policy))
	return c.JSON(http.StatusCreated, groupPart{ID: g.ID, Name: g.Name, Policy: string(g.Policy)})
}

// Update handles PUT /v1/groups/:id.  Policy changes affect future
// admissions only; settled bookings keep their outcome.
func (h *GroupHandler) Update(c echo.Context) error {
	var req groupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	g := model.Group{ID: c.Param("id")}
	if resp := h.bindGroup(c, &req, &g); resp != nil {
		return resp
	}

	if err := h.Groups.Update(c.Request().Context(), &g); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	writeAudit(c, h.Audit, "group.update", "group", g.ID, "", string(g.Policy))
	return c.JSON(http.StatusOK, groupPart{ID: g.ID, Name: g.Name, Policy: string(g.Policy)})
}

// Get handles GET /v1/groups/:id.
func (h *GroupHandler) Get(c echo.Context) error {
	g, err := h.Groups.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, groupPart{ID: g.ID, Name: g.Name, Policy: string(g.Policy)})
}

// List handles GET /v1/groups.
func (h *GroupHandler) List(c echo.Context) error {
	items, err := h.Groups.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]groupPart, 0, len(items))
	for _, g := range items {
		out = append(out, groupPart{ID: g.ID, Name: g.Name, Policy: string(g.Policy)})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
