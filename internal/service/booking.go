package service

import (
	"context"
	"sort"

	"github.com/nithish2321/EntraceEase/internal/booking"
	"github.com/nithish2321/EntraceEase/internal/model"
	"github.com/nithish2321/EntraceEase/internal/repository"
)

// BookingService reserves and amends seats for colleges.
type BookingService struct {
	store repository.Store
	deps  Deps
}

// NewBookingService panics on a nil store.
func NewBookingService(store repository.Store, deps Deps) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{store: store, deps: deps.withDefaults()}
}

// loadCenters locks the given test centers in sorted id order.
func loadCenters(ctx context.Context, tx repository.Tx, ids []string) (booking.Centers, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	centers := make(booking.Centers, len(sorted))
	for _, id := range sorted {
		tc, err := tx.TestCenter(ctx, id)
		if err != nil {
			return nil, err
		}
		centers[id] = tc
	}
	return centers, nil
}

func saveCenters(ctx context.Context, tx repository.Tx, centers booking.Centers) error {
	for _, id := range centers.IDs() {
		if err := tx.SaveTestCenter(ctx, centers[id]); err != nil {
			return err
		}
	}
	return nil
}

// Reserve books every requested slot for the college or nothing at all.
func (s *BookingService) Reserve(ctx context.Context, collegeID string, reqs []model.CenterRequest) (*model.Booking, error) {
	reqs = model.CloneRequests(reqs)
	if err := booking.Normalize(reqs); err != nil {
		return nil, err
	}
	b := &model.Booking{ID: s.deps.NewID(), TestCenters: reqs}
	now := s.deps.Now()

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		college, err := tx.College(ctx, collegeID)
		if err != nil {
			return err
		}
		centers, err := loadCenters(ctx, tx, model.TestCenterIDs(b.TestCenters))
		if err != nil {
			return err
		}
		if err := booking.Reserve(college, centers, b, now); err != nil {
			return err
		}
		if err := saveCenters(ctx, tx, centers); err != nil {
			return err
		}
		if err := tx.SaveCollege(ctx, college); err != nil {
			return err
		}
		return tx.CreateBooking(ctx, b)
	})
	if err != nil {
		s.deps.fail("reserve", err)
		return nil, err
	}

	s.deps.purge(ctx)
	if m := s.deps.Metrics; m != nil {
		m.Bookings.Inc()
		m.SeatsBooked.Add(float64(b.TotalSeats()))
	}
	s.deps.Log.Info("booking created", "booking_id", b.ID, "college_id", collegeID, "seats", b.TotalSeats())
	return b, nil
}

// Amend rewrites seat counts of one of the college's bookings.
func (s *BookingService) Amend(ctx context.Context, collegeID, bookingID string, shape []model.CenterRequest) (*model.Booking, error) {
	shape = model.CloneRequests(shape)
	var out *model.Booking
	now := s.deps.Now()

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		college, err := tx.College(ctx, collegeID)
		if err != nil {
			return err
		}
		existing, err := tx.Booking(ctx, bookingID)
		if err != nil {
			return err
		}
		if existing.CollegeID != collegeID {
			return repository.ErrForbidden
		}
		centers, err := loadCenters(ctx, tx, model.TestCenterIDs(shape))
		if err != nil {
			return err
		}
		if err := booking.Amend(existing, college, centers, shape, now); err != nil {
			return err
		}
		if err := saveCenters(ctx, tx, centers); err != nil {
			return err
		}
		if err := tx.SaveCollege(ctx, college); err != nil {
			return err
		}
		if err := tx.SaveBooking(ctx, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		s.deps.fail("amend", err)
		return nil, err
	}

	s.deps.purge(ctx)
	if m := s.deps.Metrics; m != nil {
		m.Amendments.Inc()
	}
	s.deps.Log.Info("booking amended", "booking_id", bookingID, "college_id", collegeID)
	return out, nil
}

// ListForCollege returns the college's bookings, oldest first.
func (s *BookingService) ListForCollege(ctx context.Context, collegeID string) ([]model.Booking, error) {
	return s.store.ListBookingsByCollege(ctx, collegeID)
}
