package model

import "time"

// BookedSlotEntry is one reservation line in a college's own ledger.  Several
// entries for the same date and slot are legal; they add up.
type BookedSlotEntry struct {
	Slot         string `json:"slot" bson:"slot"`
	SeatsBooked  int    `json:"seatsBooked" bson:"seatsBooked"`
	TestCenterID string `json:"testCenterId" bson:"testCenterId"`
	BookingID    string `json:"bookingId" bson:"bookingId"`
}

// BookedDate groups ledger entries by exam date.
type BookedDate struct {
	Date  time.Time         `json:"date" bson:"date"`
	Slots []BookedSlotEntry `json:"slots" bson:"slots"`
}

// ExamDetails is the descriptive exam metadata a college publishes.  None of
// it takes part in booking or allocation.
type ExamDetails struct {
	ExamName                 string   `json:"examName" bson:"examName"`
	EligibilityQualification string   `json:"eligibilityQualification,omitempty" bson:"eligibilityQualification,omitempty"`
	ExamFees                 float64  `json:"examFees,omitempty" bson:"examFees,omitempty"`
	Nationality              string   `json:"nationality,omitempty" bson:"nationality,omitempty"`
	AgeLimit                 int      `json:"ageLimit,omitempty" bson:"ageLimit,omitempty"`
	SubjectEligibility       string   `json:"subjectEligibility,omitempty" bson:"subjectEligibility,omitempty"`
	ProgrammesOffered        string   `json:"programmesOffered,omitempty" bson:"programmesOffered,omitempty"`
	PreviousYearCutOff       float64  `json:"previousYearCutOff,omitempty" bson:"previousYearCutOff,omitempty"`
	ExamSyllabus             string   `json:"examSyllabus,omitempty" bson:"examSyllabus,omitempty"`
	SeatAvailability         string   `json:"seatAvailability,omitempty" bson:"seatAvailability,omitempty"`
	ExamDate                 string   `json:"examDate,omitempty" bson:"examDate,omitempty"`
	ExamSlots                []string `json:"examSlots,omitempty" bson:"examSlots,omitempty"`
	ExamDuration             int      `json:"examDuration,omitempty" bson:"examDuration,omitempty"`
	ExamPattern              string   `json:"examPattern,omitempty" bson:"examPattern,omitempty"`
	ExamType                 string   `json:"examType,omitempty" bson:"examType,omitempty"`
	ExamMode                 string   `json:"examMode,omitempty" bson:"examMode,omitempty"`
}

// College is the aggregate that owns students and a denormalized view of the
// seats it has reserved.
type College struct {
	ID          string       `json:"id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	Exam        ExamDetails  `json:"exam" bson:"exam"`
	BookedDates []BookedDate `json:"bookedDates" bson:"bookedDates"`
	Version     int64        `json:"version" bson:"version"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// BookedDate returns the ledger entry for date.
func (c *College) BookedDate(date time.Time) (*BookedDate, bool) {
	for i := range c.BookedDates {
		if SameDay(c.BookedDates[i].Date, date) {
			return &c.BookedDates[i], true
		}
	}
	return nil, false
}

// AppendBooked pushes entry onto the date's slot list, creating the date entry
// when the college has none yet.  Existing entries are never overwritten.
func (c *College) AppendBooked(date time.Time, entry BookedSlotEntry) {
	if d, ok := c.BookedDate(date); ok {
		d.Slots = append(d.Slots, entry)
		return
	}
	c.BookedDates = append(c.BookedDates, BookedDate{Date: DateOnly(date), Slots: []BookedSlotEntry{entry}})
}

// TotalBookedSeats sums every ledger entry.
func (c *College) TotalBookedSeats() int {
	total := 0
	for _, d := range c.BookedDates {
		for _, s := range d.Slots {
			total += s.SeatsBooked
		}
	}
	return total
}

// Clone returns a deep copy.
func (c *College) Clone() *College {
	if c == nil {
		return nil
	}
	out := *c
	out.Exam.ExamSlots = append([]string(nil), c.Exam.ExamSlots...)
	out.BookedDates = make([]BookedDate, len(c.BookedDates))
	for i, d := range c.BookedDates {
		out.BookedDates[i] = BookedDate{Date: d.Date, Slots: append([]BookedSlotEntry(nil), d.Slots...)}
	}
	return &out
}
