package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// ClassTypeHandler covers class type CRUD.
type ClassTypeHandler struct {
	ClassTypes *repository.ClassTypeRepo
	Audit      *repository.AuditRepo
}

func NewClassTypeHandler(classTypes *repository.ClassTypeRepo, audit *repository.AuditRepo) *ClassTypeHandler {
	return &ClassTypeHandler{ClassTypes: classTypes, Audit: audit}
}

type classTypeReq struct {
	ID          string  `json:"id"` // slug, required on create
	Name        string  `json:"name"`
	Level       *string `json:"level"`
	Description *string `json:"description"`
}

type classTypeResp struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Level       *string   `json:"level,omitempty"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toClassTypeResp(ct *model.ClassType) classTypeResp {
	return classTypeResp{ID: ct.ID, Name: ct.Name, Level: ct.Level, Description: ct.Description, UpdatedAt: ct.UpdatedAt}
}

// Create handles POST /v1/class-types.
func (h *ClassTypeHandler) Create(c echo.Context) error {
	var req classTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ct := model.ClassType{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Level:       req.Level,
		Description: req.Description,
	}
	if ct.ID == "" || ct.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and name are required"})
	}

	if err := h.ClassTypes.Create(c.Request().Context(), &ct); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class type id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create class type"})
	}
	writeAudit(c, h.Audit, "class_type.create", "class_type", ct.ID, "", ct.Name)

	created, err := h.ClassTypes.GetByID(c.Request().Context(), ct.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, toClassTypeResp(created))
}

// Update handles PUT /v1/class-types/:id.
func (h *ClassTypeHandler) Update(c echo.Context) error {
	var req classTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ct := model.ClassType{
		ID:          c.Param("id"),
		Name:        strings.TrimSpace(req.Name),
		Level:       req.Level,
		Description: req.Description,
	}
	if ct.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if err := h.ClassTypes.Update(c.Request().Context(), &ct); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	writeAudit(c, h.Audit, "class_type.update", "class_type", ct.ID, "", "")

	updated, err := h.ClassTypes.GetByID(c.Request().Context(), ct.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toClassTypeResp(updated))
}

// Get handles GET /v1/class-types/:id.
func (h *ClassTypeHandler) Get(c echo.Context) error {
	ct, err := h.ClassTypes.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toClassTypeResp(ct))
}

// List handles GET /v1/class-types.
func (h *ClassTypeHandler) List(c echo.Context) error {
	items, err := h.ClassTypes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]classTypeResp, 0, len(items))
	for i := range items {
		out = append(out, toClassTypeResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
