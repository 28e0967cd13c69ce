// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nithish2321/EntraceEase/internal/config"
	"github.com/nithish2321/EntraceEase/internal/handler"
	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/middleware"
	"github.com/nithish2321/EntraceEase/internal/utils"
)

// Handlers groups the HTTP handlers registered by Register.
type Handlers struct {
	Admin      *handler.AdminHandler
	College    *handler.CollegeHandler
	TestCenter *handler.TestCenterHandler
	Student    *handler.StudentHandler
}

// Options carries the middleware settings.  Redis may be nil, in which case
// caching and rate limiting pass every request through.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       logger.Logger
}

// Register installs every route of the API.
func Register(e *echo.Echo, h Handlers, opt Options) {
	if opt.Log != nil {
		e.Use(middleware.RequestLogger(opt.Log))
	}

	e.GET("/healthz", handler.Health)

	limit := middleware.NewTokenBucket(opt.RateLimit, opt.Redis, opt.Log)
	v1 := e.Group("/v1", limit)

	RegisterPublic(v1, h, opt)

	auth := middleware.JWTAuth(opt.JWTSecret)

	admin := v1.Group("/admin", auth, middleware.RequireRole(utils.RoleAdmin))
	admin.POST("/test-centers", h.Admin.CreateTestCenter)
	admin.POST("/colleges", h.Admin.CreateCollege)
	admin.GET("/colleges", h.Admin.ListColleges)

	RegisterCollege(v1, h.College, auth)

	tc := v1.Group("/test-center", auth, middleware.RequireRole(utils.RoleTestCenter))
	tc.GET("/profile", h.TestCenter.Profile)
	tc.PUT("/profile", h.TestCenter.UpdateProfile)
	tc.GET("/availability", h.TestCenter.Availability)
	tc.GET("/bookings", h.TestCenter.Bookings)
}

// RegisterPublic registers unauthenticated endpoints.  Test center browsing
// goes through the response cache.
func RegisterPublic(g *echo.Group, h Handlers, opt Options) {
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)
	g.GET("/test-centers", h.TestCenter.List, cache)
	g.GET("/test-centers/:id", h.TestCenter.Get, cache)

	g.GET("/students/:id/name", h.Student.Name)
	g.POST("/students/:id/verify", h.Student.Verify)
}

// RegisterCollege registers COLLEGE endpoints.  Every route is bound to the
// college in the caller's token.
func RegisterCollege(g *echo.Group, c *handler.CollegeHandler, auth echo.MiddlewareFunc) {
	role := middleware.RequireRole(utils.RoleCollege)

	g.POST("/bookings", c.CreateBooking, auth, role)
	g.PUT("/bookings/:id", c.AmendBooking, auth, role)

	col := g.Group("/college", auth, role)
	col.GET("/profile", c.Profile)
	col.PUT("/profile", c.UpdateProfile)
	col.GET("/bookings", c.ListBookings)
	col.POST("/students", c.ImportStudents)
	col.GET("/students", c.ListStudents)
	col.POST("/allocations", c.Allocate)
	col.GET("/assignments", c.Assignments)
}
