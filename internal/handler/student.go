package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/service"
)

// StudentHandler answers unauthenticated student lookups.
type StudentHandler struct {
	responder
	Directory *service.DirectoryService
}

// NewStudentHandler panics on a nil service.
func NewStudentHandler(dir *service.DirectoryService, log logger.Logger) *StudentHandler {
	if dir == nil {
		panic("nil service passed to NewStudentHandler")
	}
	return &StudentHandler{responder: newResponder(log), Directory: dir}
}

// Name handles GET /v1/students/:id/name.
func (h *StudentHandler) Name(c echo.Context) error {
	name, err := h.Directory.StudentName(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"name": name})
}

// Verify handles POST /v1/students/:id/verify and returns the hall ticket
// when the date of birth matches.
func (h *StudentHandler) Verify(c echo.Context) error {
	var body verifyBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.DOB == "" {
		return h.respondError(c, model.Invalid("dob is required"))
	}
	dob, err := model.ParseDate(body.DOB)
	if err != nil {
		return h.respondError(c, err)
	}
	ticket, err := h.Directory.VerifyStudent(c.Request().Context(), c.Param("id"), dob)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "hallTicket": ticket})
}
