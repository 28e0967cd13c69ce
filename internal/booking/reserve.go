package booking

import (
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// Reserve books every (test center, date, slot) of b for college.
//
// All slots are checked before anything changes: a missing center is
// ErrNotFound, a date the center does not offer is ErrNoAvailability and a
// missing or too small slot is ErrInsufficientSeats carrying the real count.
// On success each slot is decremented, one history line per slot is appended
// to its center and the college ledger gains one entry per slot.
func Reserve(college *model.College, centers Centers, b *model.Booking, now time.Time) error {
	if err := normalize(b.TestCenters, 1); err != nil {
		return err
	}

	for _, req := range b.TestCenters {
		tc, ok := centers[req.TestCenterID]
		if !ok || tc == nil {
			return model.NotFound("test center", req.TestCenterID)
		}
		for _, d := range req.BookingDates {
			entry, ok := tc.DateEntry(d.Date)
			if !ok {
				return &model.SeatError{Err: model.ErrNoAvailability, TestCenterID: tc.ID, Date: d.Date}
			}
			for _, s := range d.Slots {
				available := 0
				slot, found := entry.SlotEntry(s.Slot)
				if found {
					available = slot.AvailableSeats
				}
				if !found || available < s.SeatsToBook {
					return &model.SeatError{
						Err:          model.ErrInsufficientSeats,
						TestCenterID: tc.ID,
						Date:         d.Date,
						Slot:         s.Slot,
						Requested:    s.SeatsToBook,
						Available:    available,
					}
				}
			}
		}
	}

	for _, req := range b.TestCenters {
		tc := centers[req.TestCenterID]
		for _, d := range req.BookingDates {
			for _, s := range d.Slots {
				if err := tc.Decrement(d.Date, s.Slot, s.SeatsToBook); err != nil {
					return err
				}
				tc.BookingHistory = append(tc.BookingHistory, model.HistoryEntry{
					CollegeID: college.ID,
					BookingID: b.ID,
					Date:      d.Date,
					Slots:     []model.SlotBooked{{Slot: s.Slot, SeatsBooked: s.SeatsToBook}},
					Timestamp: now,
				})
				college.AppendBooked(d.Date, model.BookedSlotEntry{
					Slot:         s.Slot,
					SeatsBooked:  s.SeatsToBook,
					TestCenterID: tc.ID,
					BookingID:    b.ID,
				})
			}
		}
		tc.UpdatedAt = now
	}
	college.UpdatedAt = now
	b.CollegeID = college.ID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return nil
}
