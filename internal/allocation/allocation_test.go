package allocation

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/nithish2321/EntraceEase/internal/model"
)

var (
	may1 = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now  = time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC)
)

func roster(n int) []model.Student {
	out := make([]model.Student, n)
	for i := range out {
		out[i] = model.Student{ID: fmt.Sprintf("s%02d", i+1), CollegeID: "college-a"}
	}
	return out
}

func twoSlotCollege(t *testing.T) (*model.College, map[string]*model.TestCenter) {
	t.Helper()
	tc, err := model.NewTestCenter("tc-x", "Center X", "Chennai", 10, []time.Time{may1}, []string{"Morning", "Afternoon"})
	require.NoError(t, err)
	college := &model.College{ID: "college-a"}
	college.AppendBooked(may1, model.BookedSlotEntry{Slot: "Morning", SeatsBooked: 6, TestCenterID: tc.ID, BookingID: "b1"})
	college.AppendBooked(may1, model.BookedSlotEntry{Slot: "Afternoon", SeatsBooked: 4, TestCenterID: tc.ID, BookingID: "b1"})
	return college, map[string]*model.TestCenter{tc.ID: tc}
}

func TestPlanTwoSlots(t *testing.T) {
	college, centers := twoSlotCollege(t)
	slots, err := Flatten(college, centers)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "Center X", slots[0].TestCenterName)

	res, err := Plan(college.ID, slots, roster(10), "run-1", now)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 10)

	for i := 0; i < 6; i++ {
		a := res.Assignments[i]
		assert.Equal(t, fmt.Sprintf("s%02d", i+1), a.StudentID)
		assert.Equal(t, "Morning", a.Slot)
		assert.Equal(t, fmt.Sprintf("010520251%04d", i+1), a.Regno)
		assert.Equal(t, model.EmailPending, a.EmailStatus)
		assert.Equal(t, "Chennai", a.Location)
	}
	for i := 0; i < 4; i++ {
		a := res.Assignments[6+i]
		assert.Equal(t, fmt.Sprintf("s%02d", 7+i), a.StudentID)
		assert.Equal(t, "Afternoon", a.Slot)
		assert.Equal(t, fmt.Sprintf("010520252%04d", i+1), a.Regno)
	}
	assert.Equal(t, []Consumption{
		{TestCenterID: "tc-x", Date: may1, Slot: "Morning", Assigned: 6},
		{TestCenterID: "tc-x", Date: may1, Slot: "Afternoon", Assigned: 4},
	}, res.Consumed)
}

func TestPlanPreconditions(t *testing.T) {
	college, centers := twoSlotCollege(t)
	slots, err := Flatten(college, centers)
	require.NoError(t, err)

	_, err = Plan(college.ID, slots, nil, "r", now)
	assert.ErrorIs(t, err, model.ErrNoStudents)

	_, err = Plan(college.ID, nil, roster(1), "r", now)
	assert.ErrorIs(t, err, model.ErrNoBookedSlots)

	_, err = Plan(college.ID, slots, roster(12), "r", now)
	var ce *model.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Shortfall())
}

func TestPlanFewerStudentsThanSeats(t *testing.T) {
	college, centers := twoSlotCollege(t)
	slots, _ := Flatten(college, centers)
	res, err := Plan(college.ID, slots, roster(3), "r", now)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 3)
	require.Len(t, res.Consumed, 1)
	assert.Equal(t, 3, res.Consumed[0].Assigned)
}

func TestFlattenUnknownCenter(t *testing.T) {
	college := &model.College{ID: "c"}
	college.AppendBooked(may1, model.BookedSlotEntry{Slot: "Morning", SeatsBooked: 1, TestCenterID: "gone"})
	_, err := Flatten(college, map[string]*model.TestCenter{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSlotCode(t *testing.T) {
	assert.Equal(t, "1", SlotCode("Morning"))
	assert.Equal(t, "1", SlotCode("MORNING"))
	assert.Equal(t, "2", SlotCode("Afternoon"))
	assert.Equal(t, "2", SlotCode("Evening"))
}

func TestSequencerBoundary(t *testing.T) {
	date := time.Date(2025, 4, 22, 0, 0, 0, 0, time.UTC)
	seq := NewSequencer()
	var last string
	for i := 0; i < MaxSequence; i++ {
		r, err := seq.Next(date, "Morning")
		require.NoError(t, err)
		last = r
	}
	assert.Equal(t, "2204202511600", last)

	_, err := seq.Next(date, "morning")
	assert.ErrorIs(t, err, model.ErrSequenceExhausted)

	// other keys are unaffected
	r, err := seq.Next(date, "Afternoon")
	require.NoError(t, err)
	assert.Equal(t, "2204202520001", r)
}

func TestPlanSequenceExhausted(t *testing.T) {
	slots := []BookedSlot{
		{Date: may1, Slot: "Morning", SeatsBooked: 1000, TestCenterID: "a"},
		{Date: may1, Slot: "morning", SeatsBooked: 1000, TestCenterID: "b"},
	}
	_, err := Plan("c", slots, make([]model.Student, MaxSequence), "r", now)
	require.NoError(t, err)
	_, err = Plan("c", slots, make([]model.Student, MaxSequence+1), "r", now)
	assert.ErrorIs(t, err, model.ErrSequenceExhausted)
}

func TestConsumeClampsAtZero(t *testing.T) {
	tc, err := model.NewTestCenter("tc", "n", "l", 5, []time.Time{may1}, []string{"Morning"})
	require.NoError(t, err)

	got, err := Consume(tc, may1, "Morning", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = Consume(tc, may1, "Morning", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 0, tc.TotalVacancy)
	require.NoError(t, tc.CheckConservation())

	_, err = Consume(tc, may1, "Evening", 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

var regnoPattern = regexp.MustCompile(`^\d{8}[12]\d{4}$`)

func TestPlanProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "slots")
		slots := make([]BookedSlot, n)
		total := 0
		for i := range slots {
			day := rapid.IntRange(1, 3).Draw(t, "day")
			slots[i] = BookedSlot{
				Date:         time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC),
				Slot:         rapid.SampledFrom([]string{"Morning", "Afternoon", "Evening"}).Draw(t, "slot"),
				SeatsBooked:  rapid.IntRange(0, 40).Draw(t, "seats"),
				TestCenterID: fmt.Sprintf("tc%d", i),
			}
			total += slots[i].SeatsBooked
		}
		if total == 0 {
			return
		}
		students := roster(rapid.IntRange(1, total).Draw(t, "students"))

		first, err := Plan("c", slots, students, "r1", now)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Plan("c", slots, students, "r2", now)
		if err != nil {
			t.Fatal(err)
		}
		if len(first.Assignments) != len(students) {
			t.Fatalf("assigned %d of %d", len(first.Assignments), len(students))
		}
		seen := make(map[string]bool)
		for i, a := range first.Assignments {
			if !regnoPattern.MatchString(a.Regno) {
				t.Fatalf("bad regno %q", a.Regno)
			}
			if seen[a.Regno] {
				t.Fatalf("duplicate regno %q", a.Regno)
			}
			seen[a.Regno] = true
			b := second.Assignments[i]
			if a.StudentID != b.StudentID || a.TestCenterID != b.TestCenterID || a.Slot != b.Slot || a.Regno != b.Regno {
				t.Fatalf("run differs at %d: %+v vs %+v", i, a, b)
			}
		}
		consumed := 0
		for _, c := range first.Consumed {
			consumed += c.Assigned
		}
		if consumed != len(students) {
			t.Fatalf("consumed %d, students %d", consumed, len(students))
		}
	})
}
