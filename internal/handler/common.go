// Package handler contains the HTTP handlers for the admin API.
package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ironloft/gym-admin/internal/model"
	"github.com/ironloft/gym-admin/internal/repository"
)

// getStaffID extracts the staff_id claim placed by the JWT middleware
// and converts it to uint64.  JWT numeric claims decode as float64.
func getStaffID(c echo.Context) (uint64, error) {
	switch t := c.Get("staff_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid staff_id in context")
}

// actorString returns the acting staff id as a string pointer for audit
// rows and approved_by columns, or nil when unauthenticated.
func actorString(c echo.Context) *string {
	id, err := getStaffID(c)
	if err != nil {
		return nil
	}
	s := strconv.FormatUint(id, 10)
	return &s
}

// pageParams reads page/page_size query parameters with defaults.
func pageParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// writeAudit appends one system_log row.  Audit failures are logged and
// swallowed so they never fail the operation being audited.
func writeAudit(c echo.Context, audit *repository.AuditRepo, action, entity, entityID, status, message string) {
	if audit == nil {
		return
	}
	e := &model.AuditEntry{
		Actor:  actorString(c),
		Action: action,
	}
	if entity != "" {
		e.Entity = &entity
	}
	if entityID != "" {
		e.EntityID = &entityID
	}
	if status != "" {
		e.Status = &status
	}
	if message != "" {
		e.Message = &message
	}
	if err := audit.Append(c.Request().Context(), e); err != nil {
		log.Printf("audit: append %s failed: %v", action, err)
	}
}
