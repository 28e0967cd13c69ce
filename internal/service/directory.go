package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/repository"
)

// NewTestCenter describes a test center to seed.
type NewTestCenter struct {
	Name          string
	Location      string
	NormalVacancy int
	Dates         []time.Time
	Slots         []string
}

// DirectoryService manages test centers, colleges and rosters, and answers
// student lookups.
type DirectoryService struct {
	store repository.Store
	deps  Deps
}

// NewDirectoryService panics on a nil store.
func NewDirectoryService(store repository.Store, deps Deps) *DirectoryService {
	if store == nil {
		panic("nil store passed to NewDirectoryService")
	}
	return &DirectoryService{store: store, deps: deps.withDefaults()}
}

// CreateTestCenter seeds every slot of every date with NormalVacancy seats.
func (s *DirectoryService) CreateTestCenter(ctx context.Context, in NewTestCenter) (*model.TestCenter, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, model.Invalid("test center name is required")
	}
	tc, err := model.NewTestCenter(s.deps.NewID(), strings.TrimSpace(in.Name), strings.TrimSpace(in.Location),
		in.NormalVacancy, in.Dates, in.Slots)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	tc.BookingHistory = []model.HistoryEntry{}
	tc.CreatedAt, tc.UpdatedAt = now, now
	if err := s.store.CreateTestCenter(ctx, tc); err != nil {
		return nil, err
	}
	s.deps.purge(ctx)
	s.deps.Log.Info("test center created", "test_center_id", tc.ID, "total_vacancy", tc.TotalVacancy)
	return tc, nil
}

func (s *DirectoryService) ListTestCenters(ctx context.Context) ([]model.TestCenter, error) {
	return s.store.ListTestCenters(ctx)
}

func (s *DirectoryService) GetTestCenter(ctx context.Context, id string) (*model.TestCenter, error) {
	return s.store.GetTestCenter(ctx, id)
}

// UpdateTestCenter changes the display fields of a test center.  Empty
// values keep the current ones; seat inventory and history are never
// touched.
func (s *DirectoryService) UpdateTestCenter(ctx context.Context, id, name, location string) (*model.TestCenter, error) {
	name, location = strings.TrimSpace(name), strings.TrimSpace(location)
	if name == "" && location == "" {
		return nil, model.Invalid("name or location is required")
	}
	var out *model.TestCenter
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		tc, err := tx.TestCenter(ctx, id)
		if err != nil {
			return err
		}
		if name != "" {
			tc.Name = name
		}
		if location != "" {
			tc.Location = location
		}
		tc.UpdatedAt = s.deps.Now()
		if err := tx.SaveTestCenter(ctx, tc); err != nil {
			return err
		}
		out = tc
		return nil
	})
	if err != nil {
		s.deps.fail("update_test_center", err)
		return nil, err
	}
	s.deps.purge(ctx)
	s.deps.Log.Info("test center updated", "test_center_id", id)
	return out, nil
}

// CreateCollege registers a college with its exam details.
func (s *DirectoryService) CreateCollege(ctx context.Context, name string, exam model.ExamDetails) (*model.College, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.Invalid("college name is required")
	}
	now := s.deps.Now()
	c := &model.College{
		ID:          s.deps.NewID(),
		Name:        strings.TrimSpace(name),
		Exam:        exam,
		BookedDates: []model.BookedDate{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCollege(ctx, c); err != nil {
		return nil, err
	}
	s.deps.Log.Info("college created", "college_id", c.ID)
	return c, nil
}

func (s *DirectoryService) GetCollege(ctx context.Context, id string) (*model.College, error) {
	return s.store.GetCollege(ctx, id)
}

func (s *DirectoryService) ListColleges(ctx context.Context) ([]model.College, error) {
	return s.store.ListColleges(ctx)
}

// UpdateCollege replaces the exam details of a college and, when name is
// not empty, its name.  The booked-dates ledger is left as it is.
func (s *DirectoryService) UpdateCollege(ctx context.Context, id, name string, exam model.ExamDetails) (*model.College, error) {
	var out *model.College
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.College(ctx, id)
		if err != nil {
			return err
		}
		if n := strings.TrimSpace(name); n != "" {
			c.Name = n
		}
		c.Exam = exam
		c.UpdatedAt = s.deps.Now()
		if err := tx.SaveCollege(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		s.deps.fail("update_college", err)
		return nil, err
	}
	s.deps.Log.Info("college updated", "college_id", id)
	return out, nil
}

// ImportStudents appends already parsed roster records to the college in
// the given order.  Missing ids are generated.
func (s *DirectoryService) ImportStudents(ctx context.Context, collegeID string, students []model.Student) ([]model.Student, error) {
	if len(students) == 0 {
		return nil, model.Invalid("no student records")
	}
	if _, err := s.store.GetCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	now := s.deps.Now()
	out := make([]model.Student, len(students))
	seen := make(map[string]struct{}, len(students))
	for i, st := range students {
		if st.ID == "" {
			st.ID = s.deps.NewID()
		}
		if _, dup := seen[st.ID]; dup {
			return nil, fmt.Errorf("student %s appears twice in the import: %w", st.ID, repository.ErrConflict)
		}
		seen[st.ID] = struct{}{}
		st.CollegeID = collegeID
		st.FirstName = strings.TrimSpace(st.FirstName)
		st.LastName = strings.TrimSpace(st.LastName)
		st.Email = strings.TrimSpace(st.Email)
		if !st.DOB.IsZero() {
			st.DOB = model.DateOnly(st.DOB)
		}
		st.CreatedAt = now
		out[i] = st
	}
	if err := s.store.AddStudents(ctx, out); err != nil {
		return nil, err
	}
	s.deps.Log.Info("students imported", "college_id", collegeID, "count", len(out))
	return out, nil
}

func (s *DirectoryService) ListStudents(ctx context.Context, collegeID string) ([]model.Student, error) {
	return s.store.ListStudents(ctx, collegeID)
}

// StudentName returns the display name of a student.
func (s *DirectoryService) StudentName(ctx context.Context, id string) (string, error) {
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return "", err
	}
	return st.FullName(), nil
}

// VerifyStudent checks dob against the roster and returns the hall ticket of
// the student's current assignment.
func (s *DirectoryService) VerifyStudent(ctx context.Context, id string, dob time.Time) (*model.HallTicket, error) {
	if dob.IsZero() {
		return nil, model.Invalid("date of birth is required")
	}
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.DOB.IsZero() || !model.SameDay(st.DOB, dob) {
		return nil, ErrInvalidDOB
	}
	a, err := s.store.AssignmentByStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	examName := ""
	if c, err := s.store.GetCollege(ctx, a.CollegeID); err == nil {
		examName = c.Exam.ExamName
	}
	ticket := model.NewHallTicket(*a, *st, examName)
	return &ticket, nil
}
