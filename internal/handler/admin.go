package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/service"
)

// AdminHandler seeds test centers and registers colleges.
type AdminHandler struct {
	responder
	Directory *service.DirectoryService
}

// NewAdminHandler panics on a nil service.
func NewAdminHandler(dir *service.DirectoryService, log logger.Logger) *AdminHandler {
	if dir == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{responder: newResponder(log), Directory: dir}
}

// CreateTestCenter handles POST /v1/admin/test-centers.
func (h *AdminHandler) CreateTestCenter(c echo.Context) error {
	var body testCenterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	in := service.NewTestCenter{
		Name:          body.Name,
		Location:      body.Location,
		NormalVacancy: body.NormalVacancy,
		Slots:         body.Slots,
	}
	for _, raw := range body.Dates {
		d, err := model.ParseDate(raw)
		if err != nil {
			return h.respondError(c, err)
		}
		in.Dates = append(in.Dates, d)
	}
	tc, err := h.Directory.CreateTestCenter(c.Request().Context(), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, tc)
}

// CreateCollege handles POST /v1/admin/colleges.
func (h *AdminHandler) CreateCollege(c echo.Context) error {
	var body collegeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	col, err := h.Directory.CreateCollege(c.Request().Context(), body.Name, body.Exam)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

// ListColleges handles GET /v1/admin/colleges.
func (h *AdminHandler) ListColleges(c echo.Context) error {
	items, err := h.Directory.ListColleges(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
