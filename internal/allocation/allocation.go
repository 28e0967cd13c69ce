// Package allocation assigns a college's students to the seats it has booked
// and numbers each assignment.
//
// A registration number is DDMMYYYY of the exam date, a one digit slot code
// ("1" for a slot named morning in any case, "2" otherwise) and a four digit
// sequence that restarts at 0001 for every (date, slot code) within one run.
package allocation

import (
	"fmt"
	"strings"
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// MaxSequence is the last sequence number issued for one date and slot code.
const MaxSequence = 1600

// BookedSlot is one college ledger entry joined with its test center.
type BookedSlot struct {
	Date           time.Time
	Slot           string
	SeatsBooked    int
	TestCenterID   string
	TestCenterName string
	Location       string
}

// Consumption is how many students a run placed in one ledger entry.
type Consumption struct {
	TestCenterID string
	Date         time.Time
	Slot         string
	Assigned     int
}

// Result is the outcome of Plan.
type Result struct {
	Assignments []model.StudentAssignment
	Consumed    []Consumption
}

// Flatten turns the college ledger into its booked slots, keeping ledger
// order.  Every referenced test center must be present in centers.
func Flatten(college *model.College, centers map[string]*model.TestCenter) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, d := range college.BookedDates {
		for _, s := range d.Slots {
			tc, ok := centers[s.TestCenterID]
			if !ok || tc == nil {
				return nil, model.NotFound("test center", s.TestCenterID)
			}
			out = append(out, BookedSlot{
				Date:           model.DateOnly(d.Date),
				Slot:           s.Slot,
				SeatsBooked:    s.SeatsBooked,
				TestCenterID:   tc.ID,
				TestCenterName: tc.Name,
				Location:       tc.Location,
			})
		}
	}
	return out, nil
}

// SlotCode maps a slot name to its regno digit.
func SlotCode(slot string) string {
	if strings.EqualFold(strings.TrimSpace(slot), "morning") {
		return "1"
	}
	return "2"
}

// Sequencer hands out regnos for one allocation run.  It is not shared
// between runs.
type Sequencer struct {
	limit int
	last  map[string]int
}

// NewSequencer returns a sequencer capped at MaxSequence.
func NewSequencer() *Sequencer {
	return &Sequencer{limit: MaxSequence, last: make(map[string]int)}
}

// Next returns the next regno for (date, slot).
func (s *Sequencer) Next(date time.Time, slot string) (string, error) {
	key := model.DateOnly(date).Format("02012006") + SlotCode(slot)
	n := s.last[key] + 1
	if n > s.limit {
		return "", &model.SequenceError{Date: model.DateOnly(date), Slot: slot, Limit: s.limit}
	}
	s.last[key] = n
	return fmt.Sprintf("%s%04d", key, n), nil
}

// Plan walks slots in order and fills each with up to SeatsBooked students,
// taking students in list order.  The same inputs always give the same
// assignments.
func Plan(collegeID string, slots []BookedSlot, students []model.Student, runID string, now time.Time) (*Result, error) {
	if len(students) == 0 {
		return nil, model.ErrNoStudents
	}
	if len(slots) == 0 {
		return nil, model.ErrNoBookedSlots
	}
	total := 0
	for _, s := range slots {
		total += s.SeatsBooked
	}
	if len(students) > total {
		return nil, &model.CapacityError{Students: len(students), BookedSeats: total}
	}

	seq := NewSequencer()
	res := &Result{Assignments: make([]model.StudentAssignment, 0, len(students))}
	next := 0
	for _, slot := range slots {
		if next == len(students) {
			break
		}
		take := min(slot.SeatsBooked, len(students)-next)
		if take <= 0 {
			continue
		}
		for i := 0; i < take; i++ {
			st := students[next]
			regno, err := seq.Next(slot.Date, slot.Slot)
			if err != nil {
				return nil, err
			}
			res.Assignments = append(res.Assignments, model.StudentAssignment{
				RunID:          runID,
				StudentID:      st.ID,
				CollegeID:      collegeID,
				TestCenterID:   slot.TestCenterID,
				TestCenterName: slot.TestCenterName,
				Location:       slot.Location,
				ExamDate:       slot.Date,
				Slot:           slot.Slot,
				Regno:          regno,
				EmailStatus:    model.EmailPending,
				AssignedAt:     now,
			})
			next++
		}
		res.Consumed = append(res.Consumed, Consumption{
			TestCenterID: slot.TestCenterID,
			Date:         slot.Date,
			Slot:         slot.Slot,
			Assigned:     take,
		})
	}
	return res, nil
}

// Consume marks n seats of (date, slot) as used by assigned students.  The
// slot never drops below zero and TotalVacancy moves by the same amount, so
// the returned count may be smaller than n.
func Consume(tc *model.TestCenter, date time.Time, slot string, n int) (int, error) {
	available, err := tc.FindAvailability(date, slot)
	if err != nil {
		return 0, err
	}
	take := min(n, available)
	if take <= 0 {
		return 0, nil
	}
	if err := tc.Decrement(date, slot, take); err != nil {
		return 0, err
	}
	return take, nil
}
