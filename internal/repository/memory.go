package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// MemoryStore keeps every document in process memory.  One mutex
// serialises transactions; writes made inside InTx are staged and only
// published when fn returns nil.  Callers of InTx must not use the
// MemoryStore itself from inside fn.
type MemoryStore struct {
	mu          sync.Mutex
	centers     map[string]*model.TestCenter
	colleges    map[string]*model.College
	bookings    map[string]*model.Booking
	students    []model.Student
	assignments map[string][]model.StudentAssignment
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		centers:     make(map[string]*model.TestCenter),
		colleges:    make(map[string]*model.College),
		bookings:    make(map[string]*model.Booking),
		assignments: make(map[string][]model.StudentAssignment),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:           s,
		centers:     make(map[string]*model.TestCenter),
		colleges:    make(map[string]*model.College),
		bookings:    make(map[string]*model.Booking),
		assignments: make(map[string][]model.StudentAssignment),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, tc := range tx.centers {
		s.centers[id] = tc
	}
	for id, c := range tx.colleges {
		s.colleges[id] = c
	}
	for id, b := range tx.bookings {
		s.bookings[id] = b
	}
	for id, as := range tx.assignments {
		s.assignments[id] = as
	}
	return nil
}

type memTx struct {
	s           *MemoryStore
	centers     map[string]*model.TestCenter
	colleges    map[string]*model.College
	bookings    map[string]*model.Booking
	assignments map[string][]model.StudentAssignment
}

func (t *memTx) TestCenter(_ context.Context, id string) (*model.TestCenter, error) {
	if tc, ok := t.centers[id]; ok {
		return tc.Clone(), nil
	}
	tc, ok := t.s.centers[id]
	if !ok {
		return nil, model.NotFound("test center", id)
	}
	return tc.Clone(), nil
}

func (t *memTx) current(id string) (int64, bool) {
	if tc, ok := t.centers[id]; ok {
		return tc.Version, true
	}
	if tc, ok := t.s.centers[id]; ok {
		return tc.Version, true
	}
	return 0, false
}

func (t *memTx) SaveTestCenter(_ context.Context, tc *model.TestCenter) error {
	v, ok := t.current(tc.ID)
	if !ok {
		return model.NotFound("test center", tc.ID)
	}
	if v != tc.Version {
		return fmt.Errorf("test center %s: %w", tc.ID, ErrVersionConflict)
	}
	if err := tc.CheckConservation(); err != nil {
		return err
	}
	tc.Version++
	t.centers[tc.ID] = tc.Clone()
	return nil
}

func (t *memTx) College(_ context.Context, id string) (*model.College, error) {
	if c, ok := t.colleges[id]; ok {
		return c.Clone(), nil
	}
	c, ok := t.s.colleges[id]
	if !ok {
		return nil, model.NotFound("college", id)
	}
	return c.Clone(), nil
}

func (t *memTx) SaveCollege(ctx context.Context, c *model.College) error {
	cur, err := t.College(ctx, c.ID)
	if err != nil {
		return err
	}
	if cur.Version != c.Version {
		return fmt.Errorf("college %s: %w", c.ID, ErrVersionConflict)
	}
	c.Version++
	t.colleges[c.ID] = c.Clone()
	return nil
}

func (t *memTx) Booking(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := t.bookings[id]; ok {
		return b.Clone(), nil
	}
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, model.NotFound("booking", id)
	}
	return b.Clone(), nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	if _, err := t.Booking(ctx, b.ID); err == nil {
		return fmt.Errorf("booking %s: %w", b.ID, ErrConflict)
	}
	b.Version = 1
	t.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) SaveBooking(ctx context.Context, b *model.Booking) error {
	cur, err := t.Booking(ctx, b.ID)
	if err != nil {
		return err
	}
	if cur.Version != b.Version {
		return fmt.Errorf("booking %s: %w", b.ID, ErrVersionConflict)
	}
	b.Version++
	t.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) Students(_ context.Context, collegeID string) ([]model.Student, error) {
	return t.s.rosterLocked(collegeID), nil
}

func (t *memTx) ReplaceAssignments(_ context.Context, collegeID string, as []model.StudentAssignment) error {
	seen := make(map[string]struct{}, len(as))
	for _, a := range as {
		if _, dup := seen[a.Regno]; dup {
			return fmt.Errorf("regno %s: %w", a.Regno, ErrConflict)
		}
		seen[a.Regno] = struct{}{}
	}
	t.assignments[collegeID] = append([]model.StudentAssignment{}, as...)
	return nil
}

func (s *MemoryStore) CreateTestCenter(_ context.Context, tc *model.TestCenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.centers[tc.ID]; ok {
		return fmt.Errorf("test center %s: %w", tc.ID, ErrConflict)
	}
	tc.Version = 1
	s.centers[tc.ID] = tc.Clone()
	return nil
}

func (s *MemoryStore) GetTestCenter(_ context.Context, id string) (*model.TestCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.centers[id]
	if !ok {
		return nil, model.NotFound("test center", id)
	}
	return tc.Clone(), nil
}

func (s *MemoryStore) ListTestCenters(_ context.Context) ([]model.TestCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TestCenter, 0, len(s.centers))
	for _, tc := range s.centers {
		out = append(out, *tc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name || (out[i].Name == out[j].Name && out[i].ID < out[j].ID) })
	return out, nil
}

func (s *MemoryStore) CreateCollege(_ context.Context, c *model.College) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colleges[c.ID]; ok {
		return fmt.Errorf("college %s: %w", c.ID, ErrConflict)
	}
	c.Version = 1
	s.colleges[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) GetCollege(_ context.Context, id string) (*model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colleges[id]
	if !ok {
		return nil, model.NotFound("college", id)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) ListColleges(_ context.Context) ([]model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.College, 0, len(s.colleges))
	for _, c := range s.colleges {
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name || (out[i].Name == out[j].Name && out[i].ID < out[j].ID) })
	return out, nil
}

func (s *MemoryStore) ListBookingsByCollege(_ context.Context, collegeID string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.CollegeID == collegeID {
			out = append(out, *b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AddStudents(_ context.Context, students []model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(students))
	for _, st := range students {
		if _, ok := s.studentLocked(st.ID); ok {
			return fmt.Errorf("student %s: %w", st.ID, ErrConflict)
		}
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("student %s repeated: %w", st.ID, ErrConflict)
		}
		seen[st.ID] = struct{}{}
	}
	for _, st := range students {
		st.Position = len(s.students) + 1
		st.Fields = cloneFields(st.Fields)
		s.students = append(s.students, st)
	}
	return nil
}

func (s *MemoryStore) ListStudents(_ context.Context, collegeID string) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked(collegeID), nil
}

func (s *MemoryStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studentLocked(id)
	if !ok {
		return nil, model.NotFound("student", id)
	}
	return &st, nil
}

func (s *MemoryStore) ListAssignments(_ context.Context, collegeID string) ([]model.StudentAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StudentAssignment{}, s.assignments[collegeID]...), nil
}

func (s *MemoryStore) AssignmentByStudent(_ context.Context, studentID string) (*model.StudentAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, as := range s.assignments {
		for _, a := range as {
			if a.StudentID == studentID {
				return &a, nil
			}
		}
	}
	return nil, model.NotFound("assignment for student", studentID)
}

func (s *MemoryStore) SetEmailStatus(_ context.Context, assignmentID string, status model.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, as := range s.assignments {
		for i := range as {
			if as[i].ID == assignmentID {
				as[i].EmailStatus = status
				return nil
			}
		}
	}
	return model.NotFound("assignment", assignmentID)
}

func (s *MemoryStore) rosterLocked(collegeID string) []model.Student {
	out := make([]model.Student, 0)
	for _, st := range s.students {
		if st.CollegeID == collegeID {
			st.Fields = cloneFields(st.Fields)
			out = append(out, st)
		}
	}
	return out
}

func (s *MemoryStore) studentLocked(id string) (model.Student, bool) {
	for _, st := range s.students {
		if st.ID == id {
			st.Fields = cloneFields(st.Fields)
			return st, true
		}
	}
	return model.Student{}, false
}

func cloneFields(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
