package booking

import (
	"fmt"
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// change is one validated amendment of a single slot.  The pointers refer
// into the loaded aggregates and stay valid because amending never appends.
type change struct {
	center   *model.TestCenter
	date     time.Time
	slot     string
	old      *model.SlotRequest
	newSeats int
	history  *model.SlotBooked
	ledger   []*model.BookedSlotEntry
}

// Amend rewrites the seat counts of an existing booking.
//
// For every slot in shape the committed value is looked up in existing and
// seatDifference = old - new is added back to the center (positive releases
// seats).  Growth is checked against the slot's availability exactly like a
// new reservation.  The center's history line and the college ledger entry
// for the slot are set to the new count.  Any lookup miss is ErrNotFound and
// leaves every aggregate untouched.  Slots of existing not mentioned in shape
// keep their current count.
func Amend(existing *model.Booking, college *model.College, centers Centers, shape []model.CenterRequest, now time.Time) error {
	if err := normalize(shape, 0); err != nil {
		return err
	}

	changes := make([]change, 0)
	for _, req := range shape {
		tc, ok := centers[req.TestCenterID]
		if !ok || tc == nil {
			return model.NotFound("test center", req.TestCenterID)
		}
		for _, d := range req.BookingDates {
			for _, s := range d.Slots {
				ch, err := plan(existing, college, tc, d.Date, s)
				if err != nil {
					return err
				}
				changes = append(changes, ch)
			}
		}
	}

	for _, ch := range changes {
		diff := ch.old.SeatsToBook - ch.newSeats
		if err := ch.center.Adjust(ch.date, ch.slot, diff); err != nil {
			return err
		}
		ch.history.SeatsBooked = ch.newSeats
		for _, e := range ch.ledger {
			e.SeatsBooked = ch.newSeats
		}
		ch.old.SeatsToBook = ch.newSeats
		ch.center.UpdatedAt = now
	}
	college.UpdatedAt = now
	existing.UpdatedAt = now
	return nil
}

func plan(existing *model.Booking, college *model.College, tc *model.TestCenter, date time.Time, s model.SlotRequest) (change, error) {
	ch := change{center: tc, date: date, slot: s.Slot, newSeats: s.SeatsToBook}
	where := fmt.Sprintf("%s/%s/%s", tc.ID, date.Format(model.DateLayout), s.Slot)

	old, ok := existing.Find(tc.ID, date, s.Slot)
	if !ok {
		return ch, model.NotFound("booked slot", where)
	}
	ch.old = old

	available, err := tc.FindAvailability(date, s.Slot)
	if err != nil {
		return ch, err
	}
	if grow := s.SeatsToBook - old.SeatsToBook; grow > available {
		return ch, &model.SeatError{
			Err:          model.ErrInsufficientSeats,
			TestCenterID: tc.ID,
			Date:         date,
			Slot:         s.Slot,
			Requested:    grow,
			Available:    available,
		}
	}

	ch.history = findHistory(tc, college.ID, existing.ID, date, s.Slot)
	if ch.history == nil {
		return ch, model.NotFound("history entry", where)
	}

	if d, ok := college.BookedDate(date); ok {
		for i := range d.Slots {
			e := &d.Slots[i]
			if e.Slot == s.Slot && e.TestCenterID == tc.ID && ownedBy(e.BookingID, existing.ID) {
				ch.ledger = append(ch.ledger, e)
			}
		}
	}
	if len(ch.ledger) == 0 {
		return ch, model.NotFound("college ledger entry", where)
	}
	return ch, nil
}

// findHistory returns the slot line of the first history entry recorded for
// this college and date (and booking, when the entry carries one).
func findHistory(tc *model.TestCenter, collegeID, bookingID string, date time.Time, slot string) *model.SlotBooked {
	for i := range tc.BookingHistory {
		h := &tc.BookingHistory[i]
		if h.CollegeID != collegeID || !model.SameDay(h.Date, date) || !ownedBy(h.BookingID, bookingID) {
			continue
		}
		for j := range h.Slots {
			if h.Slots[j].Slot == slot {
				return &h.Slots[j]
			}
		}
	}
	return nil
}

// ownedBy treats entries written before booking ids were recorded as
// belonging to any booking.
func ownedBy(entryBookingID, bookingID string) bool {
	return entryBookingID == "" || entryBookingID == bookingID
}
