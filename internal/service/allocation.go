package service

import (
	"context"
	"sort"
	"time"

	"github.com/nithish2321/EntraceEase/internal/allocation"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/repository"
)

// AssignedStudent is one line of the allocation summary.
type AssignedStudent struct {
	AssignmentID   string            `json:"assignmentId"`
	StudentID      string            `json:"studentId"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Regno          string            `json:"regno"`
	TestCenterID   string            `json:"testCenterId"`
	TestCenterName string            `json:"testCenterName"`
	Location       string            `json:"testCenterLocation"`
	ExamDate       time.Time         `json:"examDate"`
	Slot           string            `json:"slot"`
	EmailStatus    model.EmailStatus `json:"emailStatus"`
}

// EmailSummary tallies hall ticket delivery for one run.
type EmailSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

func (e *EmailSummary) add(s model.EmailStatus) {
	e.Total++
	switch s {
	case model.EmailSent:
		e.Sent++
	case model.EmailFailed:
		e.Failed++
	default:
		e.Pending++
	}
}

// AllocationReport is the result of one allocation run.
type AllocationReport struct {
	RunID     string            `json:"runId"`
	CollegeID string            `json:"collegeId"`
	Students  []AssignedStudent `json:"assignments"`
	Email     EmailSummary      `json:"emailSummary"`
}

// AllocationService runs allocation and tracks hall ticket delivery.
type AllocationService struct {
	store    repository.Store
	notifier Notifier
	deps     Deps
}

// NewAllocationService panics on a nil store.  A nil notifier leaves every
// assignment pending.
func NewAllocationService(store repository.Store, notifier Notifier, deps Deps) *AllocationService {
	if store == nil {
		panic("nil store passed to NewAllocationService")
	}
	return &AllocationService{store: store, notifier: notifier, deps: deps.withDefaults()}
}

// Run replaces the college's assignments with a fresh allocation of its
// whole roster and then dispatches hall tickets.
func (s *AllocationService) Run(ctx context.Context, collegeID string) (*AllocationReport, error) {
	started := time.Now()
	runID := s.deps.NewID()
	now := s.deps.Now()

	var (
		college  *model.College
		students []model.Student
		plan     *allocation.Result
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		college, err = tx.College(ctx, collegeID)
		if err != nil {
			return err
		}
		centers, err := loadCenters(ctx, tx, ledgerCenters(college))
		if err != nil {
			return err
		}
		slots, err := allocation.Flatten(college, centers)
		if err != nil {
			return err
		}
		students, err = tx.Students(ctx, collegeID)
		if err != nil {
			return err
		}
		plan, err = allocation.Plan(collegeID, slots, students, runID, now)
		if err != nil {
			return err
		}
		for i := range plan.Assignments {
			plan.Assignments[i].ID = s.deps.NewID()
		}
		for _, c := range plan.Consumed {
			if _, err := allocation.Consume(centers[c.TestCenterID], c.Date, c.Slot, c.Assigned); err != nil {
				return err
			}
			centers[c.TestCenterID].UpdatedAt = now
		}
		if err := saveCenters(ctx, tx, centers); err != nil {
			return err
		}
		return tx.ReplaceAssignments(ctx, collegeID, plan.Assignments)
	})
	if err != nil {
		s.deps.fail("allocate", err)
		return nil, err
	}
	s.deps.purge(ctx)

	byID := make(map[string]model.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}
	report := &AllocationReport{RunID: runID, CollegeID: collegeID, Students: make([]AssignedStudent, 0, len(plan.Assignments))}
	for _, a := range plan.Assignments {
		st := byID[a.StudentID]
		status := s.dispatch(ctx, a, st, college.Exam.ExamName)
		report.Email.add(status)
		report.Students = append(report.Students, AssignedStudent{
			AssignmentID:   a.ID,
			StudentID:      a.StudentID,
			Name:           st.FullName(),
			Email:          st.Email,
			Regno:          a.Regno,
			TestCenterID:   a.TestCenterID,
			TestCenterName: a.TestCenterName,
			Location:       a.Location,
			ExamDate:       a.ExamDate,
			Slot:           a.Slot,
			EmailStatus:    status,
		})
	}

	if m := s.deps.Metrics; m != nil {
		m.AllocationRuns.Inc()
		m.StudentsAssigned.Add(float64(len(plan.Assignments)))
		m.AllocationDuration.Observe(time.Since(started).Seconds())
	}
	s.deps.Log.Info("allocation completed",
		"run_id", runID, "college_id", collegeID, "assigned", len(plan.Assignments),
		"sent", report.Email.Sent, "failed", report.Email.Failed, "pending", report.Email.Pending)
	return report, nil
}

// dispatch hands one hall ticket to the notifier.  Failures are recorded on
// the assignment and never abort the run.
func (s *AllocationService) dispatch(ctx context.Context, a model.StudentAssignment, st model.Student, examName string) model.EmailStatus {
	if s.notifier == nil || st.Email == "" {
		return model.EmailPending
	}
	status, err := s.notifier.Dispatch(ctx, model.NewHallTicket(a, st, examName))
	if err != nil {
		s.deps.Log.Warn("hall ticket dispatch failed", "assignment_id", a.ID, "student_id", a.StudentID, "error", err)
		status = model.EmailFailed
	}
	if !status.Valid() {
		status = model.EmailPending
	}
	if status != model.EmailPending {
		if err := s.MarkEmailStatus(ctx, a.ID, status); err != nil {
			s.deps.Log.Error("record email status failed", "assignment_id", a.ID, "error", err)
		}
	}
	return status
}

// Assignments returns the college's current assignment ledger.
func (s *AllocationService) Assignments(ctx context.Context, collegeID string) ([]model.StudentAssignment, error) {
	return s.store.ListAssignments(ctx, collegeID)
}

// MarkEmailStatus records the delivery outcome of one hall ticket.
func (s *AllocationService) MarkEmailStatus(ctx context.Context, assignmentID string, status model.EmailStatus) error {
	if !status.Valid() {
		return model.Invalid("unknown email status %q", status)
	}
	if err := s.store.SetEmailStatus(ctx, assignmentID, status); err != nil {
		return err
	}
	if m := s.deps.Metrics; m != nil {
		m.HallTickets.WithLabelValues(string(status)).Inc()
	}
	return nil
}

// ledgerCenters lists the distinct test centers in the college ledger.
func ledgerCenters(c *model.College) []string {
	seen := make(map[string]struct{})
	for _, d := range c.BookedDates {
		for _, s := range d.Slots {
			seen[s.TestCenterID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
