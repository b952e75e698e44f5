// Package store defines the persistence contract shared by the scheduler,
// the sink and the administrative API. Backends live in sub-packages.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

const (
	// DefaultJobsLimit is the page size used when the caller gives none.
	DefaultJobsLimit = 50
	// MaxJobsLimit caps every job listing.
	MaxJobsLimit = 200
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Store is implemented by the Postgres and SQLite backends.
//
// Fingerprint uniqueness is enforced by the database: InsertJob is a single
// "insert if absent" statement and reports SubmitDuplicate when nothing was
// written.
type Store interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
	ListEnabledSources(ctx context.Context) ([]domain.Source, error)
	UpsertSource(ctx context.Context, in domain.SourceInput) (domain.Source, error)
	DeleteSource(ctx context.Context, id int64) error
	ToggleSource(ctx context.Context, id int64) (bool, error)
	SetSourceEnabled(ctx context.Context, id int64, enabled bool) error

	InsertJob(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error)
	ListJobs(ctx context.Context, limit int) ([]domain.Job, error)
	DeleteJob(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// ClampLimit applies DefaultJobsLimit and MaxJobsLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultJobsLimit
	}
	if limit > MaxJobsLimit {
		return MaxJobsLimit
	}
	return limit
}
