// Package booking holds the reservation and amendment engines.  Both work on
// already-loaded aggregates (test centers, college, booking) and either apply
// every requested change or none of them; persisting the result is the
// caller's job.
package booking

import (
	"sort"
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// Centers are the test centers loaded for one request, keyed by id.
type Centers map[string]*model.TestCenter

// IDs returns the keys in sorted order so callers lock rows consistently.
func (c Centers) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type slotKey struct {
	center string
	date   time.Time
	slot   string
}

// normalize checks the nested request shape and rewrites every date to its
// date-only form.  minSeats is 1 for new reservations and 0 for amendments.
func normalize(reqs []model.CenterRequest, minSeats int) error {
	if len(reqs) == 0 {
		return model.Invalid("testCenters is required")
	}
	seen := make(map[slotKey]struct{})
	for i := range reqs {
		tc := &reqs[i]
		if tc.TestCenterID == "" {
			return model.Invalid("testCenterId is required")
		}
		if len(tc.BookingDates) == 0 {
			return model.Invalid("bookingDates is required for test center %s", tc.TestCenterID)
		}
		for j := range tc.BookingDates {
			d := &tc.BookingDates[j]
			if d.Date.IsZero() {
				return model.Invalid("date is required for test center %s", tc.TestCenterID)
			}
			d.Date = model.DateOnly(d.Date)
			if len(d.Slots) == 0 {
				return model.Invalid("slots are required for %s", d.Date.Format(model.DateLayout))
			}
			for _, s := range d.Slots {
				if s.Slot == "" {
					return model.Invalid("slot name is required")
				}
				if s.SeatsToBook < minSeats {
					return model.Invalid("seatsToBook for slot %s must be at least %d", s.Slot, minSeats)
				}
				k := slotKey{center: tc.TestCenterID, date: d.Date, slot: s.Slot}
				if _, dup := seen[k]; dup {
					return model.Invalid("slot %s on %s at test center %s is listed twice",
						s.Slot, d.Date.Format(model.DateLayout), tc.TestCenterID)
				}
				seen[k] = struct{}{}
			}
		}
	}
	return nil
}

// Normalize validates a request shape the way Reserve does, without touching
// any aggregate.
func Normalize(reqs []model.CenterRequest) error { return normalize(reqs, 1) }
