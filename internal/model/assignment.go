package model

import "time"

// EmailStatus tracks hall ticket delivery for one assignment.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailPending, EmailSent, EmailFailed:
		return true
	}
	return false
}

// StudentAssignment places one student in one (test center, date, slot) for
// one allocation run.  The set for a college is replaced wholesale on every
// run.
type StudentAssignment struct {
	ID             string      `json:"id" bson:"_id"`
	RunID          string      `json:"runId" bson:"runId"`
	StudentID      string      `json:"studentId" bson:"studentId"`
	CollegeID      string      `json:"collegeId" bson:"collegeId"`
	TestCenterID   string      `json:"testCenterId" bson:"testCenterId"`
	TestCenterName string      `json:"testCenterName" bson:"testCenterName"`
	Location       string      `json:"testCenterLocation" bson:"testCenterLocation"`
	ExamDate       time.Time   `json:"examDate" bson:"examDate"`
	Slot           string      `json:"slot" bson:"slot"`
	Regno          string      `json:"regno" bson:"regno"`
	EmailStatus    EmailStatus `json:"emailStatus" bson:"emailStatus"`
	AssignedAt     time.Time   `json:"assignedAt" bson:"assignedAt"`
	Seq            int         `json:"-" bson:"seq"`
}

// HallTicket is the data printed on a hall ticket and sent to the student.
type HallTicket struct {
	AssignmentID   string    `json:"assignmentId"`
	StudentID      string    `json:"studentId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Regno          string    `json:"regno"`
	ExamName       string    `json:"examName"`
	TestCenterName string    `json:"testCenterName"`
	Location       string    `json:"location"`
	ExamDate       time.Time `json:"examDate"`
	Slot           string    `json:"slot"`
}

// NewHallTicket joins an assignment with its student and college.  Missing
// display values print as "N/A".
func NewHallTicket(a StudentAssignment, s Student, examName string) HallTicket {
	return HallTicket{
		AssignmentID:   a.ID,
		StudentID:      s.ID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		Regno:          a.Regno,
		ExamName:       orNA(examName),
		TestCenterName: orNA(a.TestCenterName),
		Location:       orNA(a.Location),
		ExamDate:       a.ExamDate,
		Slot:           a.Slot,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
