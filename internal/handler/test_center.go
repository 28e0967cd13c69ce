package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/middleware"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/service"
)

// centerView is the public shape of a test center; the booking history is
// only shown to the center itself.
type centerView struct {
	ID                    string                   `json:"id"`
	Name                  string                   `json:"name"`
	Location              string                   `json:"location"`
	NormalVacancy         int                      `json:"normalVacancy"`
	TotalVacancy          int                      `json:"totalVacancy"`
	BookingAvailableSeats []model.DateAvailability `json:"bookingAvailableSeats"`
}

func viewOf(tc *model.TestCenter) centerView {
	return centerView{
		ID:                    tc.ID,
		Name:                  tc.Name,
		Location:              tc.Location,
		NormalVacancy:         tc.NormalVacancy,
		TotalVacancy:          tc.TotalVacancy,
		BookingAvailableSeats: tc.BookingAvailableSeats,
	}
}

// TestCenterHandler serves public browsing and the TEST_CENTER role.
type TestCenterHandler struct {
	responder
	Directory *service.DirectoryService
}

// NewTestCenterHandler panics on a nil service.
func NewTestCenterHandler(dir *service.DirectoryService, log logger.Logger) *TestCenterHandler {
	if dir == nil {
		panic("nil service passed to NewTestCenterHandler")
	}
	return &TestCenterHandler{responder: newResponder(log), Directory: dir}
}

// List handles GET /v1/test-centers.
func (h *TestCenterHandler) List(c echo.Context) error {
	centers, err := h.Directory.ListTestCenters(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	items := make([]centerView, 0, len(centers))
	for i := range centers {
		items = append(items, viewOf(&centers[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Get handles GET /v1/test-centers/:id.
func (h *TestCenterHandler) Get(c echo.Context) error {
	tc, err := h.Directory.GetTestCenter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(tc))
}

// Profile handles GET /v1/test-center/profile and returns the full
// document of the caller's center.
func (h *TestCenterHandler) Profile(c echo.Context) error {
	tc, err := h.Directory.GetTestCenter(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, tc)
}

// UpdateProfile handles PUT /v1/test-center/profile.  Only name and
// location can change.
func (h *TestCenterHandler) UpdateProfile(c echo.Context) error {
	var body centerProfileBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	tc, err := h.Directory.UpdateTestCenter(c.Request().Context(), middleware.ScopeID(c), body.Name, body.Location)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, tc)
}

// Availability handles GET /v1/test-center/availability.
func (h *TestCenterHandler) Availability(c echo.Context) error {
	tc, err := h.Directory.GetTestCenter(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(tc))
}

// Bookings handles GET /v1/test-center/bookings.
func (h *TestCenterHandler) Bookings(c echo.Context) error {
	tc, err := h.Directory.GetTestCenter(c.Request().Context(), middleware.ScopeID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"testCenterId": tc.ID, "items": tc.BookingHistory})
}
