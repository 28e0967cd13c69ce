// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	Bookings           prometheus.Counter
	Amendments         prometheus.Counter
	SeatsBooked        prometheus.Counter
	AllocationRuns     prometheus.Counter
	StudentsAssigned   prometheus.Counter
	AllocationDuration prometheus.Histogram
	HallTickets        *prometheus.CounterVec
	ErrorsCount        *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.  Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Bookings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "The total number of committed bookings",
		}),
		Amendments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_amendments_total",
			Help:      "The total number of committed booking amendments",
		}),
		SeatsBooked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_booked_total",
			Help:      "Seats taken by new bookings",
		}),
		AllocationRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_runs_total",
			Help:      "The total number of committed allocation runs",
		}),
		StudentsAssigned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "students_assigned_total",
			Help:      "Students placed by allocation runs",
		}),
		AllocationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_duration_seconds",
			Help:      "Time taken by one allocation run",
			Buckets:   prometheus.DefBuckets,
		}),
		HallTickets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hall_tickets_total",
			Help:      "Hall ticket dispatch outcomes",
		}, []string{"status"}),
		ErrorsCount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
