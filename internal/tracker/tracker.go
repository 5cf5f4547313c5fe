// Package tracker records per-job application statuses and serves the
// recent-updates feed.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
)

// Status is the application status of a job.
type Status string

const (
	StatusNotApplied Status = "not_applied"
	StatusApplied    Status = "applied"
	StatusRejected   Status = "rejected"
	StatusSelected   Status = "selected"
)

// Valid reports whether s is one of the recognised statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotApplied, StatusApplied, StatusRejected, StatusSelected:
		return true
	}
	return false
}

// Statuses lists the recognised statuses in display order.
func Statuses() []Status {
	return []Status{StatusNotApplied, StatusApplied, StatusRejected, StatusSelected}
}

// Update is one recent-updates feed entry, annotated with the originating
// job's display fields.
type Update struct {
	JobID     int       `json:"jobId"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusStore defines the storage operations the Tracker needs.
// Implemented by storage.Store.
type StatusStore interface {
	SetJobStatus(rec storage.StatusRecord) error
	GetJobStatus(jobID int) (storage.StatusRecord, error)
	ListStatusUpdates(defaultStatus string, limit int) ([]storage.StatusRecord, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Tracker reads and writes per-job status records.
type Tracker struct {
	store  StatusStore
	lookup func(jobID int) (catalog.Job, bool)
	clock  Clock
}

// New creates a Tracker. lookup resolves job ids to catalogue records for
// feed annotation.
func New(store StatusStore, lookup func(int) (catalog.Job, bool)) *Tracker {
	return &Tracker{store: store, lookup: lookup, clock: realClock{}}
}

// NewWithClock creates a Tracker with a custom clock (for testing).
func NewWithClock(store StatusStore, lookup func(int) (catalog.Job, bool), clock Clock) *Tracker {
	return &Tracker{store: store, lookup: lookup, clock: clock}
}

// Set overwrites the job's status record with the given status and the
// current timestamp.
func (t *Tracker) Set(jobID int, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	rec := storage.StatusRecord{
		JobID:     jobID,
		Status:    string(status),
		UpdatedAt: t.clock.Now(),
	}
	if err := t.store.SetJobStatus(rec); err != nil {
		return fmt.Errorf("saving status for job %d: %w", jobID, err)
	}
	return nil
}

// Current returns the stored status of a job, defaulting to not_applied for
// jobs without a record. Malformed records also degrade to the default.
func (t *Tracker) Current(jobID int) Status {
	rec, err := t.store.GetJobStatus(jobID)
	if err != nil {
		return StatusNotApplied
	}
	s := Status(rec.Status)
	if !s.Valid() {
		return StatusNotApplied
	}
	return s
}

// RecentUpdates returns up to n non-default-status records, newest first,
// annotated with job display fields. Records whose job id is no longer in
// the catalogue are skipped.
func (t *Tracker) RecentUpdates(n int) ([]Update, error) {
	if n <= 0 {
		n = 5
	}
	recs, err := t.store.ListStatusUpdates(string(StatusNotApplied), n)
	if err != nil {
		return nil, fmt.Errorf("listing status updates: %w", err)
	}

	updates := make([]Update, 0, len(recs))
	for _, rec := range recs {
		job, ok := t.lookup(rec.JobID)
		if !ok {
			continue
		}
		updates = append(updates, Update{
			JobID:     rec.JobID,
			Title:     job.Title,
			Company:   job.Company,
			Status:    Status(rec.Status),
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return updates, nil
}

// ErrUnknownJob is returned by SetKnown for ids outside the catalogue.
var ErrUnknownJob = errors.New("unknown job id")

// SetKnown is Set with catalogue membership enforced; the API layer uses it
// so status records can't accumulate for ids that were never in the
// catalogue.
func (t *Tracker) SetKnown(jobID int, status Status) error {
	if _, ok := t.lookup(jobID); !ok {
		return ErrUnknownJob
	}
	return t.Set(jobID, status)
}
