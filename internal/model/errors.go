package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors of the booking and allocation core.  Handlers compare with
// errors.Is; the structured types below carry the context needed for a
// user-facing message and unwrap to one of these.
var (
	ErrNotFound             = errors.New("not found")
	ErrNoAvailability       = errors.New("no availability for date")
	ErrInsufficientSeats    = errors.New("not enough seats")
	ErrInsufficientCapacity = errors.New("not enough booked seats")
	ErrSequenceExhausted    = errors.New("maximum registration numbers exceeded")
	ErrNoStudents           = errors.New("no students found for this college")
	ErrNoBookedSlots        = errors.New("no booked slots available for assignment")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvariantViolation   = errors.New("seat invariant violated")
)

// LookupError reports a missing document or ledger entry.
type LookupError struct {
	Entity string // "test center", "college", "booking", "history entry", ...
	ID     string
}

func (e *LookupError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// NotFound builds a LookupError for the given entity.
func NotFound(entity, id string) error {
	return &LookupError{Entity: entity, ID: id}
}

// SeatError describes a failure tied to one (test center, date, slot).
// Available is the true remaining count at the time of the check.
type SeatError struct {
	Err          error
	TestCenterID string
	Date         time.Time
	Slot         string
	Requested    int
	Available    int
}

func (e *SeatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Slot != "" {
		fmt.Fprintf(&b, " in slot %s", e.Slot)
	}
	if !e.Date.IsZero() {
		fmt.Fprintf(&b, " on %s", e.Date.Format(DateLayout))
	}
	if e.TestCenterID != "" {
		fmt.Fprintf(&b, " at test center %s", e.TestCenterID)
	}
	if errors.Is(e.Err, ErrInsufficientSeats) {
		fmt.Fprintf(&b, " (requested: %d, available: %d)", e.Requested, e.Available)
	}
	return b.String()
}

func (e *SeatError) Unwrap() error { return e.Err }

// CapacityError is returned by allocation when the roster is larger than the
// seats the college has booked.
type CapacityError struct {
	Students    int
	BookedSeats int
}

// Shortfall is the number of additional seats the college needs.
func (e *CapacityError) Shortfall() int { return e.Students - e.BookedSeats }

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s (%d) for %d students, %d more seats needed",
		ErrInsufficientCapacity, e.BookedSeats, e.Students, e.Shortfall())
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// SequenceError reports that the regno sequence for a date/slot key ran past
// its ceiling.
type SequenceError struct {
	Date  time.Time
	Slot  string
	Limit int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s for %s slot %s (limit %d)",
		ErrSequenceExhausted, e.Date.Format(DateLayout), e.Slot, e.Limit)
}

func (e *SequenceError) Unwrap() error { return ErrSequenceExhausted }

// Invalid wraps ErrInvalidRequest with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
