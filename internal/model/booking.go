package model

import "time"

// SlotRequest asks for seats in one slot.
type SlotRequest struct {
	Slot        string `json:"slot" bson:"slot"`
	SeatsToBook int    `json:"seatsToBook" bson:"seatsToBook"`
}

// DateRequest groups slot requests for one date.
type DateRequest struct {
	Date  time.Time     `json:"date" bson:"date"`
	Slots []SlotRequest `json:"slots" bson:"slots"`
}

// CenterRequest groups date requests for one test center.
type CenterRequest struct {
	TestCenterID string        `json:"testCenterId" bson:"testCenterId"`
	BookingDates []DateRequest `json:"bookingDates" bson:"bookingDates"`
}

// Booking is one reservation transaction of a college.  Amendments change the
// seat counts in place; they never create a new Booking.
type Booking struct {
	ID          string          `json:"id" bson:"_id"`
	CollegeID   string          `json:"collegeId" bson:"collegeId"`
	TestCenters []CenterRequest `json:"testCenters" bson:"testCenters"`
	Version     int64           `json:"version" bson:"version"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Find returns the committed slot request for (center, date, slot).
func (b *Booking) Find(testCenterID string, date time.Time, slot string) (*SlotRequest, bool) {
	for i := range b.TestCenters {
		tc := &b.TestCenters[i]
		if tc.TestCenterID != testCenterID {
			continue
		}
		for j := range tc.BookingDates {
			d := &tc.BookingDates[j]
			if !SameDay(d.Date, date) {
				continue
			}
			for k := range d.Slots {
				if d.Slots[k].Slot == slot {
					return &d.Slots[k], true
				}
			}
		}
	}
	return nil, false
}

// TestCenterIDs lists the distinct centers referenced, in request order.
func TestCenterIDs(reqs []CenterRequest) []string {
	seen := make(map[string]struct{}, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if _, ok := seen[r.TestCenterID]; ok {
			continue
		}
		seen[r.TestCenterID] = struct{}{}
		ids = append(ids, r.TestCenterID)
	}
	return ids
}

// TotalSeats sums every slot request.
func (b *Booking) TotalSeats() int {
	total := 0
	for _, tc := range b.TestCenters {
		for _, d := range tc.BookingDates {
			for _, s := range d.Slots {
				total += s.SeatsToBook
			}
		}
	}
	return total
}

// Clone returns a deep copy.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	out := *b
	out.TestCenters = CloneRequests(b.TestCenters)
	return &out
}

// CloneRequests deep-copies a nested request shape.
func CloneRequests(in []CenterRequest) []CenterRequest {
	out := make([]CenterRequest, len(in))
	for i, tc := range in {
		dates := make([]DateRequest, len(tc.BookingDates))
		for j, d := range tc.BookingDates {
			dates[j] = DateRequest{Date: d.Date, Slots: append([]SlotRequest(nil), d.Slots...)}
		}
		out[i] = CenterRequest{TestCenterID: tc.TestCenterID, BookingDates: dates}
	}
	return out
}
