package model

import (
	"fmt"
	"time"
)

// SlotAvailability is the remaining seat count of one named slot on one date.
type SlotAvailability struct {
	Slot           string `json:"slot" bson:"slot"`
	AvailableSeats int    `json:"availableSeats" bson:"availableSeats"`
}

// DateAvailability groups the slots a test center offers on one date.
type DateAvailability struct {
	Date  time.Time          `json:"date" bson:"date"`
	Slots []SlotAvailability `json:"slots" bson:"slots"`
}

// SlotBooked is a seat count recorded against a slot in a ledger.
type SlotBooked struct {
	Slot        string `json:"slot" bson:"slot"`
	SeatsBooked int    `json:"seatsBooked" bson:"seatsBooked"`
}

// HistoryEntry is one line of a test center's booking audit trail.  It is
// not authoritative; BookingAvailableSeats is.
type HistoryEntry struct {
	CollegeID string       `json:"collegeId" bson:"collegeId"`
	BookingID string       `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Date      time.Time    `json:"date" bson:"date"`
	Slots     []SlotBooked `json:"slots" bson:"slots"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
}

// TestCenter is the seat inventory aggregate.
//
// Fields:
//
//	ID                    : identity.
//	Name, Location        : display data copied onto assignments.
//	NormalVacancy         : baseline capacity of every slot when seeded.
//	TotalVacancy          : running sum of every AvailableSeats value.
//	BookingAvailableSeats : one entry per offered date, each with per-slot counts.
//	BookingHistory        : append-only audit of reservations.
//	Version               : bumped on every write; used for compare-and-swap.
type TestCenter struct {
	ID                    string             `json:"id" bson:"_id"`
	Name                  string             `json:"name" bson:"name"`
	Location              string             `json:"location" bson:"location"`
	NormalVacancy         int                `json:"normalVacancy" bson:"normalVacancy"`
	TotalVacancy          int                `json:"totalVacancy" bson:"totalVacancy"`
	BookingAvailableSeats []DateAvailability `json:"bookingAvailableSeats" bson:"bookingAvailableSeats"`
	BookingHistory        []HistoryEntry     `json:"bookingHistory" bson:"bookingHistory"`
	Version               int64              `json:"version" bson:"version"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewTestCenter seeds a center offering every slot on every date with
// normalVacancy seats each.
func NewTestCenter(id, name, location string, normalVacancy int, dates []time.Time, slots []string) (*TestCenter, error) {
	if normalVacancy <= 0 {
		return nil, Invalid("normal vacancy must be positive")
	}
	if len(dates) == 0 || len(slots) == 0 {
		return nil, Invalid("at least one date and one slot are required")
	}
	seenSlot := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		if s == "" {
			return nil, Invalid("empty slot name")
		}
		if _, dup := seenSlot[s]; dup {
			return nil, Invalid("duplicate slot %q", s)
		}
		seenSlot[s] = struct{}{}
	}
	tc := &TestCenter{
		ID:            id,
		Name:          name,
		Location:      location,
		NormalVacancy: normalVacancy,
		TotalVacancy:  normalVacancy * len(dates) * len(slots),
	}
	for _, d := range dates {
		d = DateOnly(d)
		if _, ok := tc.DateEntry(d); ok {
			return nil, Invalid("duplicate date %s", d.Format(DateLayout))
		}
		entry := DateAvailability{Date: d, Slots: make([]SlotAvailability, 0, len(slots))}
		for _, s := range slots {
			entry.Slots = append(entry.Slots, SlotAvailability{Slot: s, AvailableSeats: normalVacancy})
		}
		tc.BookingAvailableSeats = append(tc.BookingAvailableSeats, entry)
	}
	return tc, nil
}

// DateEntry returns the availability entry for date, matched on the date only.
func (tc *TestCenter) DateEntry(date time.Time) (*DateAvailability, bool) {
	for i := range tc.BookingAvailableSeats {
		if SameDay(tc.BookingAvailableSeats[i].Date, date) {
			return &tc.BookingAvailableSeats[i], true
		}
	}
	return nil, false
}

// SlotEntry returns the slot with exactly this (case-sensitive) name.
func (d *DateAvailability) SlotEntry(slot string) (*SlotAvailability, bool) {
	for i := range d.Slots {
		if d.Slots[i].Slot == slot {
			return &d.Slots[i], true
		}
	}
	return nil, false
}

func (tc *TestCenter) slotEntry(date time.Time, slot string) (*SlotAvailability, error) {
	d, ok := tc.DateEntry(date)
	if !ok {
		return nil, &SeatError{Err: ErrNotFound, TestCenterID: tc.ID, Date: DateOnly(date)}
	}
	s, ok := d.SlotEntry(slot)
	if !ok {
		return nil, &SeatError{Err: ErrNotFound, TestCenterID: tc.ID, Date: DateOnly(date), Slot: slot}
	}
	return s, nil
}

// FindAvailability returns the remaining seats of (date, slot).  A missing
// date or slot is ErrNotFound; callers treat that as zero capacity.
func (tc *TestCenter) FindAvailability(date time.Time, slot string) (int, error) {
	s, err := tc.slotEntry(date, slot)
	if err != nil {
		return 0, err
	}
	return s.AvailableSeats, nil
}

// Decrement removes n seats from (date, slot) and from TotalVacancy.  The
// caller must already have checked n against the available count.
func (tc *TestCenter) Decrement(date time.Time, slot string, n int) error {
	s, err := tc.slotEntry(date, slot)
	if err != nil {
		return err
	}
	s.AvailableSeats -= n
	tc.TotalVacancy -= n
	return nil
}

// Adjust adds a signed delta to (date, slot) and TotalVacancy.  Nothing is
// clamped; a negative result is reported as ErrInvariantViolation and the
// delta is still applied so the caller can inspect the damage.
func (tc *TestCenter) Adjust(date time.Time, slot string, delta int) error {
	s, err := tc.slotEntry(date, slot)
	if err != nil {
		return err
	}
	s.AvailableSeats += delta
	tc.TotalVacancy += delta
	if s.AvailableSeats < 0 {
		return &SeatError{Err: ErrInvariantViolation, TestCenterID: tc.ID, Date: DateOnly(date), Slot: slot, Available: s.AvailableSeats}
	}
	return nil
}

// SumAvailable adds up every slot of every date.
func (tc *TestCenter) SumAvailable() int {
	total := 0
	for _, d := range tc.BookingAvailableSeats {
		for _, s := range d.Slots {
			total += s.AvailableSeats
		}
	}
	return total
}

// CheckConservation verifies that no slot is negative and that TotalVacancy
// equals the sum of the slots.
func (tc *TestCenter) CheckConservation() error {
	for _, d := range tc.BookingAvailableSeats {
		for _, s := range d.Slots {
			if s.AvailableSeats < 0 {
				return &SeatError{Err: ErrInvariantViolation, TestCenterID: tc.ID, Date: d.Date, Slot: s.Slot, Available: s.AvailableSeats}
			}
		}
	}
	if sum := tc.SumAvailable(); sum != tc.TotalVacancy {
		return fmt.Errorf("%w: test center %s total vacancy %d != sum of slots %d",
			ErrInvariantViolation, tc.ID, tc.TotalVacancy, sum)
	}
	return nil
}

// Clone returns a deep copy.
func (tc *TestCenter) Clone() *TestCenter {
	if tc == nil {
		return nil
	}
	out := *tc
	out.BookingAvailableSeats = make([]DateAvailability, len(tc.BookingAvailableSeats))
	for i, d := range tc.BookingAvailableSeats {
		out.BookingAvailableSeats[i] = DateAvailability{Date: d.Date, Slots: append([]SlotAvailability(nil), d.Slots...)}
	}
	out.BookingHistory = make([]HistoryEntry, len(tc.BookingHistory))
	for i, h := range tc.BookingHistory {
		h.Slots = append([]SlotBooked(nil), h.Slots...)
		out.BookingHistory[i] = h
	}
	return &out
}
