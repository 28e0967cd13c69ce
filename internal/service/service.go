// Package service orchestrates the booking, amendment and allocation engines
// over a repository.Store.  Every write runs in one store transaction; cache
// purges, metrics and hall ticket dispatch happen after commit.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/metrics"
	"github.com/nithish2321/EntraceEase/internal/model"
)

// ErrInvalidDOB is returned by VerifyStudent when the date of birth does not
// match the roster.
var ErrInvalidDOB = errors.New("invalid date of birth")

// Notifier delivers a hall ticket.  It reports the status to record on the
// assignment: EmailPending when delivery was queued, EmailSent when it
// already happened.  An error means EmailFailed.
type Notifier interface {
	Dispatch(ctx context.Context, ticket model.HallTicket) (model.EmailStatus, error)
}

// CacheInvalidator drops cached public responses after inventory changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps are the collaborators shared by all services.  Store is required;
// everything else may be left nil.
type Deps struct {
	Cache   CacheInvalidator
	Metrics *metrics.Metrics
	Log     logger.Logger
	Now     func() time.Time
	NewID   func() string
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

func (d Deps) purge(ctx context.Context) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Invalidate(ctx); err != nil {
		d.Log.Warn("cache purge failed", "error", err)
	}
}

func (d Deps) fail(op string, err error) {
	if d.Metrics != nil {
		d.Metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
	d.Log.Debug("operation failed", "operation", op, "error", err)
}
