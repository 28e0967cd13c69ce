package model

import (
	"strings"
	"time"
)

// Student is one roster record imported for a college.  Well-known columns
// are lifted into fields; everything else stays in Fields.
type Student struct {
	ID        string            `json:"id" bson:"_id"`
	CollegeID string            `json:"collegeId" bson:"collegeId"`
	FirstName string            `json:"firstName" bson:"firstName"`
	LastName  string            `json:"lastName" bson:"lastName"`
	Email     string            `json:"email" bson:"email"`
	DOB       time.Time         `json:"dob,omitempty" bson:"dob,omitempty"`
	Fields    map[string]string `json:"fields,omitempty" bson:"fields,omitempty"`
	Position  int               `json:"-" bson:"position"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
}

// FullName joins first and last name, falling back to "Student".
func (s *Student) FullName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return "Student"
	}
	return name
}
