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

// MemberHandler covers member CRUD and visit recording.
type MemberHandler struct {
	Members *repository.MemberRepo
	Audit   *repository.AuditRepo
}

func NewMemberHandler(members *repository.MemberRepo, audit *repository.AuditRepo) *MemberHandler {
	return &MemberHandler{Members: members, Audit: audit}
}

type memberReq struct {
	FullName       string   `json:"full_name"`
	Gender         *string  `json:"gender"`
	DOB            *string  `json:"dob"`       // YYYY-MM-DD
	Phone          *string  `json:"phone"`
	Email          *string  `json:"email"`
	MembershipType *string  `json:"membership_type"`
	JoinDate       *string  `json:"join_date"` // YYYY-MM-DD
	Status         string   `json:"status"`
	Source         *string  `json:"source"`
	Notes          *string  `json:"notes"`
	GroupIDs       []string `json:"group_ids"`
}

type groupPart struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Policy string `json:"approval_policy"`
}

type memberResp struct {
	ID              string      `json:"id"`
	FullName        string      `json:"full_name"`
	Gender          *string     `json:"gender,omitempty"`
	DOB             *string     `json:"dob,omitempty"`
	Phone           *string     `json:"phone,omitempty"`
	Email           *string     `json:"email,omitempty"`
	MembershipType  *string     `json:"membership_type,omitempty"`
	JoinDate        *string     `json:"join_date,omitempty"`
	LastActive      *time.Time  `json:"last_active,omitempty"`
	AttendanceCount int         `json:"attendance_count"`
	Status          string      `json:"status"`
	Source          *string     `json:"source,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Groups          []groupPart `json:"groups,omitempty"`
}

func toMemberResp(m *model.Member) memberResp {
	out := memberResp{
		ID:              m.ID,
		FullName:        m.FullName,
		Gender:          m.Gender,
		Phone:           m.Phone,
		Email:           m.Email,
		MembershipType:  m.MembershipType,
		LastActive:      m.LastActive,
		AttendanceCount: m.AttendanceCount,
		Status:          m.Status,
		Source:          m.Source,
		Notes:           m.Notes,
		UpdatedAt:       m.UpdatedAt,
	}
	out.DOB = dateString(m.DOB)
	out.JoinDate = dateString(m.JoinDate)
	for _, g := range m.Groups {
		out.Groups = append(out.Groups, groupPart{ID: g.ID, Name: g.Name, Policy: string(g.Policy)})
	}
	return out
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, true
	}
	return nil, false
}

func (h *MemberHandler) buildMember(c echo.Context, req *memberReq, m *model.Member) error {
	m.FullName = strings.TrimSpace(req.FullName)
	if m.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	m.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if m.Status == "" {
		m.Status = "active"
	}
	m.Gender = req.Gender
	m.Phone = req.Phone
	m.Email = req.Email
	m.MembershipType = req.MembershipType
	m.Source = req.Source
	m.Notes = req.Notes
	var ok bool
	if m.DOB, ok = parseDate(req.DOB); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dob"})
	}
	if m.JoinDate, ok = parseDate(req.JoinDate); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid join_date"})
	}
	return nil
}

// Create handles POST /v1/members.
func (h *MemberHandler) Create(c echo.Context) error {
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m := &model.Member{ID: uuid.NewString()}
	if resp := h.buildMember(c, &req, m); resp != nil {
		return resp
	}

	if err := h.Members.Create(c.Request().Context(), m, req.GroupIDs); err != nil {
		if errors.Is(err, repository.ErrBadReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown group in group_ids"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create member"})
	}

	created, err := h.Members.GetMember(c.Request().Context(), m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	writeAudit(c, h.Audit, "member.create", "member", m.ID, "", m.FullName)
	return c.JSON(http.StatusCreated, toMemberResp(created))
}

// Update handles PUT /v1/members/:id.  Omitting group_ids leaves the
// member's group links untouched; an empty array clears them.
func (h *MemberHandler) Update(c echo.Context) error {
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m := &model.Member{ID: c.Param("id")}
	if resp := h.buildMember(c, &req, m); resp != nil {
		return resp
	}

	if err := h.Members.Update(c.Request().Context(), m, req.GroupIDs); err != nil {
		switch {
		case errors.Is(err, admission.ErrMemberNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		case errors.Is(err, repository.ErrBadReference):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown group in group_ids"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	updated, err := h.Members.GetMember(c.Request().Context(), m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	writeAudit(c, h.Audit, "member.update", "member", m.ID, "", "")
	return c.JSON(http.StatusOK, toMemberResp(updated))
}

// Get handles GET /v1/members/:id.
func (h *MemberHandler) Get(c echo.Context) error {
	m, err := h.Members.GetMember(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, admission.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toMemberResp(m))
}

// List handles GET /v1/members with pagination.
func (h *MemberHandler) List(c echo.Context) error {
	page, pageSize := pageParams(c)
	items, total, err := h.Members.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]memberResp, 0, len(items))
	for i := range items {
		out = append(out, toMemberResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// RecordVisit handles POST /v1/members/:id/visits for walk-ins and
// front-desk check-ins that bypass the booking flow.
func (h *MemberHandler) RecordVisit(c echo.Context) error {
	var req struct {
		EventID string `json:"event_id"`
		Source  string `json:"source"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "manual"
	}
	id := c.Param("id")

	if _, err := h.Members.GetMember(c.Request().Context(), id); err != nil {
		if errors.Is(err, admission.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Members.RecordVisit(c.Request().Context(), id, req.EventID, source); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record visit"})
	}
	writeAudit(c, h.Audit, "member.visit", "member", id, "", source)
	return c.NoContent(http.StatusNoContent)
}
