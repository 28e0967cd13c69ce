// Package queue carries hall ticket dispatch over RabbitMQ: the payload,
// the publisher used by allocation and the background consumer that
// delivers tickets and reports the outcome.
package queue

import (
	"time"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// HallTicketQueue is the durable queue hall tickets are dispatched on.
const HallTicketQueue = "hall_ticket.dispatch"

// HallTicketDispatchEvent is published once per assignment with an email
// address.  It carries everything the consumer needs without reading the
// primary store.
type HallTicketDispatchEvent struct {
	AssignmentID   string `json:"assignment_id"`
	StudentID      string `json:"student_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Regno          string `json:"regno"`
	ExamName       string `json:"exam_name"`
	TestCenterName string `json:"test_center_name"`
	Location       string `json:"location"`
	ExamDate       string `json:"exam_date"`
	Slot           string `json:"slot"`
	RequestedAt    string `json:"requested_at"`
}

// NewHallTicketDispatchEvent flattens a hall ticket into the wire payload.
func NewHallTicketDispatchEvent(t model.HallTicket, at time.Time) HallTicketDispatchEvent {
	return HallTicketDispatchEvent{
		AssignmentID:   t.AssignmentID,
		StudentID:      t.StudentID,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		Email:          t.Email,
		Regno:          t.Regno,
		ExamName:       t.ExamName,
		TestCenterName: t.TestCenterName,
		Location:       t.Location,
		ExamDate:       t.ExamDate.Format(model.DateLayout),
		Slot:           t.Slot,
		RequestedAt:    at.UTC().Format(time.RFC3339),
	}
}
