package handler

import (
	"github.com/nithish2321/EntraceEase/internal/model"
)

// Request bodies carry dates as "YYYY-MM-DD" (or RFC3339) strings.

type slotBody struct {
	Slot        string `json:"slot"`
	SeatsToBook int    `json:"seatsToBook"`
}

type dateBody struct {
	Date  string     `json:"date"`
	Slots []slotBody `json:"slots"`
}

type centerBody struct {
	TestCenterID string     `json:"testCenterId"`
	BookingDates []dateBody `json:"bookingDates"`
}

type bookingBody struct {
	TestCenters []centerBody `json:"testCenters"`
}

func (b bookingBody) toModel() ([]model.CenterRequest, error) {
	out := make([]model.CenterRequest, 0, len(b.TestCenters))
	for _, tc := range b.TestCenters {
		req := model.CenterRequest{TestCenterID: tc.TestCenterID, BookingDates: make([]model.DateRequest, 0, len(tc.BookingDates))}
		for _, d := range tc.BookingDates {
			date, err := model.ParseDate(d.Date)
			if err != nil {
				return nil, err
			}
			dr := model.DateRequest{Date: date, Slots: make([]model.SlotRequest, 0, len(d.Slots))}
			for _, s := range d.Slots {
				dr.Slots = append(dr.Slots, model.SlotRequest{Slot: s.Slot, SeatsToBook: s.SeatsToBook})
			}
			req.BookingDates = append(req.BookingDates, dr)
		}
		out = append(out, req)
	}
	return out, nil
}

type testCenterBody struct {
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	NormalVacancy int      `json:"normalVacancy"`
	Dates         []string `json:"dates"`
	Slots         []string `json:"slots"`
}

type centerProfileBody struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type collegeBody struct {
	Name string            `json:"name"`
	Exam model.ExamDetails `json:"exam"`
}

type studentBody struct {
	ID        string            `json:"id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Email     string            `json:"email"`
	DOB       string            `json:"dob"`
	Fields    map[string]string `json:"fields"`
}

type rosterBody struct {
	Students []studentBody `json:"students"`
}

func (r rosterBody) toModel() ([]model.Student, error) {
	out := make([]model.Student, 0, len(r.Students))
	for _, s := range r.Students {
		st := model.Student{
			ID:        s.ID,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Email:     s.Email,
			Fields:    s.Fields,
		}
		if s.DOB != "" {
			dob, err := model.ParseDate(s.DOB)
			if err != nil {
				return nil, err
			}
			st.DOB = dob
		}
		out = append(out, st)
	}
	return out, nil
}

type verifyBody struct {
	DOB string `json:"dob"`
}
