package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/middleware"
	"github.com/nithish2321/EntraceEase/internal/service"
)

// CollegeHandler serves the COLLEGE role.  The college is always the scope
// of the caller's token.
type CollegeHandler struct {
	responder
	Bookings   *service.BookingService
	Allocation *service.AllocationService
	Directory  *service.DirectoryService
}

// NewCollegeHandler panics if any service is nil.
func NewCollegeHandler(b *service.BookingService, a *service.AllocationService, d *service.DirectoryService, log logger.Logger) *CollegeHandler {
	if b == nil || a == nil || d == nil {
		panic("nil service passed to NewCollegeHandler")
	}
	return &CollegeHandler{responder: newResponder(log), Bookings: b, Allocation: a, Directory: d}
}

// CreateBooking handles POST /v1/bookings.
func (h *CollegeHandler) CreateBooking(c echo.Context) error {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	reqs, err := body.toModel()
	if err != nil {
		return h.respondError(c, err)
	}
	b, err := h.Bookings.Reserve(c.Request().Context(), middleware.ScopeID(c), reqs)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "booking confirmed", "booking": b})
}

// AmendBooking handles PUT /v1/bookings/:id.
func (h *CollegeHandler) AmendBooking(c echo.Context) error {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	shape, err := body.toModel()
	if err != nil {
		return h.respondError(c, err)
	}
	b, err := h.Bookings.Amend(c.Request().Context(), middleware.ScopeID(c), c.Param("id"), shape)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "booking updated", "booking": b})
}

// Profile handles GET /v1/college/profile.
func (h *CollegeHandler) Profile(c echo.Context) error {
	col, err := h.Directory.GetCollege(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// UpdateProfile handles PUT /v1/college/profile.  It replaces the exam
// details; an empty name keeps the current one.
func (h *CollegeHandler) UpdateProfile(c echo.Context) error {
	var body collegeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	col, err := h.Directory.UpdateCollege(c.Request().Context(), middleware.ScopeID(c), body.Name, body.Exam)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// ListBookings handles GET /v1/college/bookings.
func (h *CollegeHandler) ListBookings(c echo.Context) error {
	items, err := h.Bookings.ListForCollege(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ImportStudents handles POST /v1/college/students.
func (h *CollegeHandler) ImportStudents(c echo.Context) error {
	var body rosterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	students, err := body.toModel()
	if err != nil {
		return h.respondError(c, err)
	}
	out, err := h.Directory.ImportStudents(c.Request().Context(), middleware.ScopeID(c), students)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"imported": len(out), "items": out})
}

// ListStudents handles GET /v1/college/students.
func (h *CollegeHandler) ListStudents(c echo.Context) error {
	items, err := h.Directory.ListStudents(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Allocate handles POST /v1/college/allocations.
func (h *CollegeHandler) Allocate(c echo.Context) error {
	report, err := h.Allocation.Run(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Assignments handles GET /v1/college/assignments.
func (h *CollegeHandler) Assignments(c echo.Context) error {
	items, err := h.Allocation.Assignments(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
