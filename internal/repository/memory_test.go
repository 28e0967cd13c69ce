package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithish2321/EntraceEase/internal/model"
)

var may1 = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	tc, err := model.NewTestCenter("tc-1", "Center", "Pune", 10, []time.Time{may1}, []string{"Morning"})
	require.NoError(t, err)
	require.NoError(t, s.CreateTestCenter(context.Background(), tc))
	require.NoError(t, s.CreateCollege(context.Background(), &model.College{ID: "c-1", Name: "College"}))
	return s
}

func TestMemoryTxCommits(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		tc, err := tx.TestCenter(ctx, "tc-1")
		if err != nil {
			return err
		}
		if err := tc.Decrement(may1, "Morning", 3); err != nil {
			return err
		}
		return tx.SaveTestCenter(ctx, tc)
	})
	require.NoError(t, err)

	tc, err := s.GetTestCenter(ctx, "tc-1")
	require.NoError(t, err)
	assert.Equal(t, 7, tc.TotalVacancy)
	assert.Equal(t, int64(2), tc.Version)
}

func TestMemoryTxRollsBackOnError(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		tc, _ := tx.TestCenter(ctx, "tc-1")
		_ = tc.Decrement(may1, "Morning", 3)
		if err := tx.SaveTestCenter(ctx, tc); err != nil {
			return err
		}
		c, _ := tx.College(ctx, "c-1")
		c.AppendBooked(may1, model.BookedSlotEntry{Slot: "Morning", SeatsBooked: 3, TestCenterID: "tc-1"})
		if err := tx.SaveCollege(ctx, c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	tc, _ := s.GetTestCenter(ctx, "tc-1")
	assert.Equal(t, 10, tc.TotalVacancy)
	c, _ := s.GetCollege(ctx, "c-1")
	assert.Empty(t, c.BookedDates)
}

func TestMemoryStaleVersionIsRejected(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		a, _ := tx.TestCenter(ctx, "tc-1")
		b, _ := tx.TestCenter(ctx, "tc-1")
		require.NoError(t, tx.SaveTestCenter(ctx, a))
		return tx.SaveTestCenter(ctx, b)
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMemorySaveRejectsBrokenConservation(t *testing.T) {
	s := seededStore(t)
	err := s.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		tc, _ := tx.TestCenter(ctx, "tc-1")
		tc.TotalVacancy = 99
		return tx.SaveTestCenter(ctx, tc)
	})
	assert.ErrorIs(t, err, model.ErrInvariantViolation)
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	tc, _ := s.GetTestCenter(ctx, "tc-1")
	tc.BookingAvailableSeats[0].Slots[0].AvailableSeats = 0

	again, _ := s.GetTestCenter(ctx, "tc-1")
	assert.Equal(t, 10, again.BookingAvailableSeats[0].Slots[0].AvailableSeats)
}

func TestMemoryRosterOrderAndAssignments(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddStudents(ctx, []model.Student{
		{ID: "s2", CollegeID: "c-1", FirstName: "B"},
		{ID: "s1", CollegeID: "c-1", FirstName: "A"},
		{ID: "x1", CollegeID: "c-2"},
	}))
	require.NoError(t, s.AddStudents(ctx, []model.Student{{ID: "s3", CollegeID: "c-1"}}))
	assert.ErrorIs(t, s.AddStudents(ctx, []model.Student{{ID: "s1", CollegeID: "c-1"}}), ErrConflict)

	roster, err := s.ListStudents(ctx, "c-1")
	require.NoError(t, err)
	ids := []string{}
	for _, st := range roster {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"s2", "s1", "s3"}, ids)

	err = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.ReplaceAssignments(ctx, "c-1", []model.StudentAssignment{
			{ID: "a1", StudentID: "s2", Regno: "0105202510001", EmailStatus: model.EmailPending},
			{ID: "a2", StudentID: "s1", Regno: "0105202510002", EmailStatus: model.EmailPending},
		})
	})
	require.NoError(t, err)

	require.NoError(t, s.SetEmailStatus(ctx, "a2", model.EmailSent))
	a, err := s.AssignmentByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.EmailSent, a.EmailStatus)
	assert.ErrorIs(t, s.SetEmailStatus(ctx, "nope", model.EmailSent), model.ErrNotFound)

	err = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.ReplaceAssignments(ctx, "c-1", []model.StudentAssignment{
			{ID: "a3", StudentID: "s3", Regno: "0105202510001"},
			{ID: "a4", StudentID: "s1", Regno: "0105202510001"},
		})
	})
	assert.ErrorIs(t, err, ErrConflict)
	list, _ := s.ListAssignments(ctx, "c-1")
	assert.Len(t, list, 2)
}

func TestMemoryAddStudentsRejectsRepeatedIDs(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	err := s.AddStudents(ctx, []model.Student{
		{ID: "s1", CollegeID: "c-1", FirstName: "A"},
		{ID: "s1", CollegeID: "c-1", FirstName: "B"},
	})
	require.ErrorIs(t, err, ErrConflict)

	roster, err := s.ListStudents(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, roster)

	require.NoError(t, s.AddStudents(ctx, []model.Student{{ID: "s1", CollegeID: "c-1", FirstName: "A"}}))
	err = s.AddStudents(ctx, []model.Student{
		{ID: "s2", CollegeID: "c-1"},
		{ID: "s1", CollegeID: "c-1"},
	})
	require.ErrorIs(t, err, ErrConflict)

	roster, err = s.ListStudents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "A", roster[0].FirstName)
}

func TestMemoryListColleges(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollege(ctx, &model.College{ID: "c-0", Name: "Alpha"}))

	cs, err := s.ListColleges(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Alpha", cs[0].Name)
	assert.Equal(t, "College", cs[1].Name)
}
