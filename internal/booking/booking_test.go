package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/nithish2321/EntraceEase/internal/model"
)

var (
	may1 = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now  = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
)

type fataler interface {
	Fatalf(format string, args ...any)
}

func centerX(t fataler, seats int) *model.TestCenter {
	tc, err := model.NewTestCenter("tc-x", "Center X", "Chennai", seats,
		[]time.Time{may1}, []string{"Morning", "Afternoon"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tc
}

func request(center string, date time.Time, slots ...model.SlotRequest) []model.CenterRequest {
	return []model.CenterRequest{{
		TestCenterID: center,
		BookingDates: []model.DateRequest{{Date: date, Slots: slots}},
	}}
}

func seats(tc *model.TestCenter, slot string) int {
	n, _ := tc.FindAvailability(may1, slot)
	return n
}

func TestReserveThenOversell(t *testing.T) {
	tc := centerX(t, 10)
	centers := Centers{tc.ID: tc}
	collegeA := &model.College{ID: "college-a"}
	collegeB := &model.College{ID: "college-b"}

	b1 := &model.Booking{ID: "b1", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 4})}
	require.NoError(t, Reserve(collegeA, centers, b1, now))

	assert.Equal(t, 6, seats(tc, "Morning"))
	assert.Equal(t, 16, tc.TotalVacancy)
	require.Len(t, collegeA.BookedDates, 1)
	assert.Equal(t, model.BookedSlotEntry{Slot: "Morning", SeatsBooked: 4, TestCenterID: tc.ID, BookingID: "b1"},
		collegeA.BookedDates[0].Slots[0])
	require.Len(t, tc.BookingHistory, 1)
	assert.Equal(t, "college-a", tc.BookingHistory[0].CollegeID)
	assert.Equal(t, "college-a", b1.CollegeID)

	b2 := &model.Booking{ID: "b2", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 8})}
	err := Reserve(collegeB, centers, b2, now)
	require.ErrorIs(t, err, model.ErrInsufficientSeats)
	var se *model.SeatError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 6, se.Available)
	assert.Equal(t, 8, se.Requested)

	assert.Equal(t, 6, seats(tc, "Morning"))
	assert.Empty(t, collegeB.BookedDates)
	assert.Len(t, tc.BookingHistory, 1)
	require.NoError(t, tc.CheckConservation())
}

func TestReserveIsAllOrNothing(t *testing.T) {
	tc := centerX(t, 5)
	college := &model.College{ID: "c"}
	b := &model.Booking{ID: "b", TestCenters: request(tc.ID, may1,
		model.SlotRequest{Slot: "Morning", SeatsToBook: 3},
		model.SlotRequest{Slot: "Afternoon", SeatsToBook: 6},
	)}
	err := Reserve(college, Centers{tc.ID: tc}, b, now)
	require.ErrorIs(t, err, model.ErrInsufficientSeats)
	assert.Equal(t, 5, seats(tc, "Morning"))
	assert.Equal(t, 10, tc.TotalVacancy)
	assert.Empty(t, college.BookedDates)
}

func TestReserveErrors(t *testing.T) {
	tc := centerX(t, 5)
	centers := Centers{tc.ID: tc}
	college := &model.College{ID: "c"}

	cases := []struct {
		name string
		reqs []model.CenterRequest
		want error
	}{
		{"unknown center", request("nope", may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 1}), model.ErrNotFound},
		{"unknown date", request(tc.ID, may1.AddDate(0, 0, 3), model.SlotRequest{Slot: "Morning", SeatsToBook: 1}), model.ErrNoAvailability},
		{"unknown slot", request(tc.ID, may1, model.SlotRequest{Slot: "Evening", SeatsToBook: 1}), model.ErrInsufficientSeats},
		{"zero seats", request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 0}), model.ErrInvalidRequest},
		{"empty", nil, model.ErrInvalidRequest},
		{"duplicate slot", request(tc.ID, may1,
			model.SlotRequest{Slot: "Morning", SeatsToBook: 1},
			model.SlotRequest{Slot: "Morning", SeatsToBook: 1}), model.ErrInvalidRequest},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := Reserve(college, centers, &model.Booking{ID: "b", TestCenters: tt.reqs}, now)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 10, tc.TotalVacancy)
		})
	}
}

func TestReserveNormalisesTimeOfDay(t *testing.T) {
	tc := centerX(t, 5)
	college := &model.College{ID: "c"}
	b := &model.Booking{ID: "b", TestCenters: request(tc.ID, may1.Add(13*time.Hour), model.SlotRequest{Slot: "Morning", SeatsToBook: 2})}
	require.NoError(t, Reserve(college, Centers{tc.ID: tc}, b, now))
	assert.True(t, b.TestCenters[0].BookingDates[0].Date.Equal(may1))
	assert.Equal(t, 3, seats(tc, "Morning"))
}

func reserved(t *testing.T, n int) (*model.TestCenter, *model.College, *model.Booking) {
	t.Helper()
	tc := centerX(t, 10)
	college := &model.College{ID: "c"}
	b := &model.Booking{ID: "b", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: n})}
	require.NoError(t, Reserve(college, Centers{tc.ID: tc}, b, now))
	return tc, college, b
}

func TestAmendShrinkAndGrow(t *testing.T) {
	tc, college, b := reserved(t, 4)
	centers := Centers{tc.ID: tc}

	require.NoError(t, Amend(b, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 1}), now))
	assert.Equal(t, 9, seats(tc, "Morning"))
	assert.Equal(t, 1, b.TestCenters[0].BookingDates[0].Slots[0].SeatsToBook)
	assert.Equal(t, 1, tc.BookingHistory[0].Slots[0].SeatsBooked)
	assert.Equal(t, 1, college.BookedDates[0].Slots[0].SeatsBooked)

	require.NoError(t, Amend(b, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 10}), now))
	assert.Equal(t, 0, seats(tc, "Morning"))
	require.NoError(t, tc.CheckConservation())
}

func TestAmendGrowthBeyondAvailability(t *testing.T) {
	tc, college, b := reserved(t, 4)
	err := Amend(b, college, Centers{tc.ID: tc}, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 11}), now)
	require.ErrorIs(t, err, model.ErrInsufficientSeats)
	var se *model.SeatError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 7, se.Requested)
	assert.Equal(t, 6, se.Available)
	assert.Equal(t, 4, b.TestCenters[0].BookingDates[0].Slots[0].SeatsToBook)
	assert.Equal(t, 6, seats(tc, "Morning"))
}

func TestAmendUnknownSlotTouchesNothing(t *testing.T) {
	tc, college, b := reserved(t, 4)
	shape := request(tc.ID, may1,
		model.SlotRequest{Slot: "Morning", SeatsToBook: 2},
		model.SlotRequest{Slot: "Afternoon", SeatsToBook: 2},
	)
	err := Amend(b, college, Centers{tc.ID: tc}, shape, now)
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 6, seats(tc, "Morning"))
	assert.Equal(t, 4, college.BookedDates[0].Slots[0].SeatsBooked)
}

func TestAmendOnlyTouchesItsOwnLedgerLines(t *testing.T) {
	tc := centerX(t, 10)
	centers := Centers{tc.ID: tc}
	college := &model.College{ID: "c"}
	first := &model.Booking{ID: "b1", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 2})}
	second := &model.Booking{ID: "b2", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 3})}
	require.NoError(t, Reserve(college, centers, first, now))
	require.NoError(t, Reserve(college, centers, second, now))

	require.NoError(t, Amend(second, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: 1}), now))

	assert.Equal(t, 7, seats(tc, "Morning"))
	assert.Equal(t, 2, college.BookedDates[0].Slots[0].SeatsBooked)
	assert.Equal(t, 1, college.BookedDates[0].Slots[1].SeatsBooked)
	assert.Equal(t, 2, tc.BookingHistory[0].Slots[0].SeatsBooked)
	assert.Equal(t, 1, tc.BookingHistory[1].Slots[0].SeatsBooked)
}

func TestAmendSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		a := rapid.IntRange(1, capacity).Draw(t, "a")
		b := rapid.IntRange(0, capacity).Draw(t, "b")

		tc := centerX(t, capacity)
		centers := Centers{tc.ID: tc}
		college := &model.College{ID: "c"}
		bk := &model.Booking{ID: "bk", TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: a})}
		if err := Reserve(college, centers, bk, now); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		before := seats(tc, "Morning")

		if err := Amend(bk, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: b}), now); err != nil {
			t.Fatalf("amend a->b: %v", err)
		}
		if got := seats(tc, "Morning"); got != before+(a-b) {
			t.Fatalf("after a->b: got %d want %d", got, before+(a-b))
		}
		if err := Amend(bk, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: "Morning", SeatsToBook: a}), now); err != nil {
			t.Fatalf("amend b->a: %v", err)
		}
		if got := seats(tc, "Morning"); got != before {
			t.Fatalf("round trip: got %d want %d", got, before)
		}
		if err := tc.CheckConservation(); err != nil {
			t.Fatal(err)
		}
	})
}

// Random reservation and amendment traffic never breaks conservation and
// never takes a slot below zero.
func TestConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tc := centerX(t, rapid.IntRange(1, 30).Draw(t, "capacity"))
		centers := Centers{tc.ID: tc}
		college := &model.College{ID: "c"}
		var bookings []*model.Booking
		slotGen := rapid.SampledFrom([]string{"Morning", "Afternoon", "Evening"})

		steps := rapid.IntRange(1, 25).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			slot := slotGen.Draw(t, "slot")
			if len(bookings) > 0 && rapid.Bool().Draw(t, "amend") {
				bk := bookings[rapid.IntRange(0, len(bookings)-1).Draw(t, "which")]
				n := rapid.IntRange(0, 35).Draw(t, "newSeats")
				_ = Amend(bk, college, centers, request(tc.ID, may1, model.SlotRequest{Slot: bk.TestCenters[0].BookingDates[0].Slots[0].Slot, SeatsToBook: n}), now)
			} else {
				bk := &model.Booking{ID: fmt.Sprintf("b%d", i),
					TestCenters: request(tc.ID, may1, model.SlotRequest{Slot: slot, SeatsToBook: rapid.IntRange(1, 35).Draw(t, "seats")})}
				if err := Reserve(college, centers, bk, now); err == nil {
					bookings = append(bookings, bk)
				}
			}
			if err := tc.CheckConservation(); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
		}

		booked := 0
		for _, bk := range bookings {
			booked += bk.TotalSeats()
		}
		if booked != college.TotalBookedSeats() {
			t.Fatalf("ledger %d != bookings %d", college.TotalBookedSeats(), booked)
		}
		if tc.TotalVacancy+booked != tc.NormalVacancy*2 {
			t.Fatalf("vacancy %d + booked %d != capacity %d", tc.TotalVacancy, booked, tc.NormalVacancy*2)
		}
	})
}

func TestCentersIDsSorted(t *testing.T) {
	c := Centers{"b": nil, "a": nil, "c": nil}
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())
}
