package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may1 = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *TestCenter {
	t.Helper()
	tc, err := NewTestCenter("tc-1", "Center X", "Chennai", 10,
		[]time.Time{may1, may1.AddDate(0, 0, 1)}, []string{"Morning", "Afternoon"})
	require.NoError(t, err)
	return tc
}

func TestNewTestCenterSeedsEverySlot(t *testing.T) {
	tc := seeded(t)
	assert.Equal(t, 40, tc.TotalVacancy)
	require.Len(t, tc.BookingAvailableSeats, 2)
	for _, d := range tc.BookingAvailableSeats {
		require.Len(t, d.Slots, 2)
		for _, s := range d.Slots {
			assert.Equal(t, 10, s.AvailableSeats)
		}
	}
	require.NoError(t, tc.CheckConservation())
}

func TestNewTestCenterRejectsBadInput(t *testing.T) {
	_, err := NewTestCenter("x", "n", "l", 0, []time.Time{may1}, []string{"Morning"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewTestCenter("x", "n", "l", 5, []time.Time{may1, may1.Add(3 * time.Hour)}, []string{"Morning"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewTestCenter("x", "n", "l", 5, []time.Time{may1}, []string{"Morning", "Morning"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestFindAvailabilityIgnoresTimeOfDay(t *testing.T) {
	tc := seeded(t)
	n, err := tc.FindAvailability(may1.Add(15*time.Hour), "Morning")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestFindAvailabilityMisses(t *testing.T) {
	tc := seeded(t)

	_, err := tc.FindAvailability(may1.AddDate(0, 1, 0), "Morning")
	assert.ErrorIs(t, err, ErrNotFound)

	// slot names are case-sensitive
	_, err = tc.FindAvailability(may1, "morning")
	var se *SeatError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "morning", se.Slot)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecrementAndAdjustKeepTotals(t *testing.T) {
	tc := seeded(t)
	require.NoError(t, tc.Decrement(may1, "Morning", 4))
	n, _ := tc.FindAvailability(may1, "Morning")
	assert.Equal(t, 6, n)
	assert.Equal(t, 36, tc.TotalVacancy)

	require.NoError(t, tc.Adjust(may1, "Morning", 3))
	require.NoError(t, tc.Adjust(may1, "Morning", -5))
	n, _ = tc.FindAvailability(may1, "Morning")
	assert.Equal(t, 4, n)
	require.NoError(t, tc.CheckConservation())
}

func TestAdjustBelowZeroIsInvariantViolation(t *testing.T) {
	tc := seeded(t)
	err := tc.Adjust(may1, "Afternoon", -11)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, tc.CheckConservation(), ErrInvariantViolation)
}

func TestCheckConservationDetectsDrift(t *testing.T) {
	tc := seeded(t)
	tc.TotalVacancy++
	assert.ErrorIs(t, tc.CheckConservation(), ErrInvariantViolation)
}

func TestCloneIsDeep(t *testing.T) {
	tc := seeded(t)
	tc.BookingHistory = append(tc.BookingHistory, HistoryEntry{CollegeID: "c", Date: may1, Slots: []SlotBooked{{Slot: "Morning", SeatsBooked: 1}}})
	cp := tc.Clone()
	require.NoError(t, cp.Decrement(may1, "Morning", 2))
	cp.BookingHistory[0].Slots[0].SeatsBooked = 9

	n, _ := tc.FindAvailability(may1, "Morning")
	assert.Equal(t, 10, n)
	assert.Equal(t, 1, tc.BookingHistory[0].Slots[0].SeatsBooked)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-05-01")
	require.NoError(t, err)
	assert.True(t, d.Equal(may1))

	d, err = ParseDate("2025-05-01T10:30:00Z")
	require.NoError(t, err)
	assert.True(t, d.Equal(may1))

	_, err = ParseDate("01/05/2025")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCollegeAppendBookedMerges(t *testing.T) {
	c := &College{ID: "c1"}
	c.AppendBooked(may1, BookedSlotEntry{Slot: "Morning", SeatsBooked: 2, TestCenterID: "tc", BookingID: "b1"})
	c.AppendBooked(may1.Add(8*time.Hour), BookedSlotEntry{Slot: "Morning", SeatsBooked: 3, TestCenterID: "tc", BookingID: "b2"})
	c.AppendBooked(may1.AddDate(0, 0, 1), BookedSlotEntry{Slot: "Afternoon", SeatsBooked: 1, TestCenterID: "tc", BookingID: "b2"})

	require.Len(t, c.BookedDates, 2)
	assert.Len(t, c.BookedDates[0].Slots, 2)
	assert.Equal(t, 6, c.TotalBookedSeats())
}

func TestCapacityErrorMessage(t *testing.T) {
	err := &CapacityError{Students: 12, BookedSeats: 10}
	assert.Equal(t, 2, err.Shortfall())
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Contains(t, err.Error(), "2 more seats needed")
}
