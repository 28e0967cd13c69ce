// Package handler exposes the booking, allocation and directory services
// over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/repository"
	"github.com/nithish2321/EntraceEase/internal/service"
)

// badRequest lists the core errors a caller can fix by changing the request.
var badRequest = []error{
	model.ErrNoAvailability,
	model.ErrInsufficientSeats,
	model.ErrInsufficientCapacity,
	model.ErrSequenceExhausted,
	model.ErrNoStudents,
	model.ErrNoBookedSlots,
	model.ErrInvalidRequest,
}

// responder writes error responses and logs the cause of every 500.
type responder struct {
	log logger.Logger
}

func newResponder(log logger.Logger) responder {
	if log == nil {
		log = logger.NewNop()
	}
	return responder{log: log}
}

// respondError maps a service error to its status code and JSON envelope.
func (r responder) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidDOB):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   target.Error(),
				"details": details(err),
			})
		}
	}
	r.log.Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// details is the error message plus the structured fields of seat and
// capacity errors.
func details(err error) map[string]any {
	out := map[string]any{"message": err.Error()}
	var seat *model.SeatError
	if errors.As(err, &seat) {
		if seat.TestCenterID != "" {
			out["testCenterId"] = seat.TestCenterID
		}
		if !seat.Date.IsZero() {
			out["date"] = seat.Date.Format(model.DateLayout)
		}
		if seat.Slot != "" {
			out["slot"] = seat.Slot
		}
		if errors.Is(seat.Err, model.ErrInsufficientSeats) {
			out["requested"] = seat.Requested
			out["available"] = seat.Available
		}
	}
	var capErr *model.CapacityError
	if errors.As(err, &capErr) {
		out["students"] = capErr.Students
		out["bookedSeats"] = capErr.BookedSeats
		out["shortfall"] = capErr.Shortfall()
	}
	return out
}
