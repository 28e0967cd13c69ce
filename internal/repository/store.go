package repository

import (
	"context"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// Tx is the read-modify-write view of the store used by one booking,
// amendment or allocation.  Documents read through Tx are locked (MySQL) or
// version-checked (MongoDB, memory) until the transaction ends.  Save
// methods bump Version on the passed document.
type Tx interface {
	TestCenter(ctx context.Context, id string) (*model.TestCenter, error)
	SaveTestCenter(ctx context.Context, tc *model.TestCenter) error

	College(ctx context.Context, id string) (*model.College, error)
	SaveCollege(ctx context.Context, c *model.College) error

	Booking(ctx context.Context, id string) (*model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	SaveBooking(ctx context.Context, b *model.Booking) error

	// Students returns the roster of a college in import order.
	Students(ctx context.Context, collegeID string) ([]model.Student, error)
	// ReplaceAssignments deletes every assignment of the college and inserts
	// the given set.
	ReplaceAssignments(ctx context.Context, collegeID string, as []model.StudentAssignment) error
}

// Store is the persistence boundary of the service layer.
type Store interface {
	// InTx runs fn in one transaction.  fn's error aborts the transaction
	// and is returned unchanged; nothing fn wrote is visible afterwards.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateTestCenter(ctx context.Context, tc *model.TestCenter) error
	GetTestCenter(ctx context.Context, id string) (*model.TestCenter, error)
	ListTestCenters(ctx context.Context) ([]model.TestCenter, error)

	CreateCollege(ctx context.Context, c *model.College) error
	GetCollege(ctx context.Context, id string) (*model.College, error)
	ListColleges(ctx context.Context) ([]model.College, error)

	ListBookingsByCollege(ctx context.Context, collegeID string) ([]model.Booking, error)

	// AddStudents appends to the roster of a college, keeping slice order.
	// An id already stored or repeated within students is ErrConflict and
	// nothing is added.
	AddStudents(ctx context.Context, students []model.Student) error
	ListStudents(ctx context.Context, collegeID string) ([]model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)

	ListAssignments(ctx context.Context, collegeID string) ([]model.StudentAssignment, error)
	AssignmentByStudent(ctx context.Context, studentID string) (*model.StudentAssignment, error)
	SetEmailStatus(ctx context.Context, assignmentID string, status model.EmailStatus) error

	Close() error
}
