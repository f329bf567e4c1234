// Package router registers the HTTP routes for the admin API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ironloft/gym-admin/internal/config"
	"github.com/ironloft/gym-admin/internal/handler"
	"github.com/ironloft/gym-admin/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Members    *handler.MemberHandler
	Groups     *handler.GroupHandler
	ClassTypes *handler.ClassTypeHandler
	Events     *handler.EventHandler
	Bookings   *handler.BookingHandler
	Exports    *handler.ExportHandler
	Analytics  *handler.AnalyticsHandler
	Audit      *handler.AuditHandler
}

// Register mounts all routes.  Everything except the health check and
// the auth endpoints requires a staff JWT; rdb may be nil, which
// disables rate limiting and caching.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Session endpoints need no existing token.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	v1.Use(middleware.RequireRole("ADMIN", "STAFF"))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Read caching only makes sense on the list endpoints; detail and
	// mutation routes always hit the database.
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	v1.GET("/me", h.Auth.Me)

	v1.POST("/members", h.Members.Create)
	v1.GET("/members", h.Members.List, cached)
	v1.GET("/members/:id", h.Members.Get)
	v1.PUT("/members/:id", h.Members.Update)
	v1.POST("/members/:id/visits", h.Members.RecordVisit)

	v1.POST("/groups", h.Groups.Create)
	v1.GET("/groups", h.Groups.List, cached)
	v1.GET("/groups/:id", h.Groups.Get)
	v1.PUT("/groups/:id", h.Groups.Update)

	v1.POST("/class-types", h.ClassTypes.Create)
	v1.GET("/class-types", h.ClassTypes.List, cached)
	v1.GET("/class-types/:id", h.ClassTypes.Get)
	v1.PUT("/class-types/:id", h.ClassTypes.Update)

	v1.POST("/events", h.Events.Create)
	v1.GET("/events", h.Events.List, cached)
	v1.GET("/events/:id", h.Events.Get)
	v1.PUT("/events/:id", h.Events.Update)

	v1.POST("/bookings", h.Bookings.Create)
	v1.GET("/bookings", h.Bookings.List)
	v1.GET("/bookings/:id", h.Bookings.Get)
	v1.POST("/bookings/:id/approve", h.Bookings.Approve)
	v1.POST("/bookings/:id/cancel", h.Bookings.Cancel)

	v1.GET("/exports/members.csv", h.Exports.Members)
	v1.GET("/exports/events.csv", h.Exports.Events)
	v1.GET("/exports/bookings.csv", h.Exports.Bookings)

	v1.GET("/analytics/bookings", h.Analytics.BookingCounts)
	v1.GET("/analytics/events/:id/utilization", h.Analytics.EventUtilization)

	v1.GET("/audit", h.Audit.List)
}
