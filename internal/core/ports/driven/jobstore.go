package driven

import (
	"context"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
)

// JobUpdate carries the mutable result fields written alongside a
// status transition. Nil pointer fields are left unchanged.
type JobUpdate struct {
	StartedAt      *time.Time
	FinishedAt     *time.Time
	RecordsFetched *int
	RecordsWritten *int
	Error          *string
}

// JobStore is the durable sync job ledger. It is the basis for history
// queries and for the one-active-job-per-stream invariant: a ledger
// row in a non-terminal state is the logical per-key lock.
type JobStore interface {
	// InsertIfAbsentActive atomically inserts the job unless an active
	// (pending/running/cancelling) job already exists for the same
	// (source, stream) key, in which case it returns
	// domain.ErrSyncConflict. This must be a single conditional insert,
	// never a check-then-act.
	InsertIfAbsentActive(ctx context.Context, job domain.SyncJob) error

	// Get retrieves a job by ID. Returns domain.ErrJobNotFound if absent.
	Get(ctx context.Context, jobID string) (*domain.SyncJob, error)

	// UpdateStatus transitions a job and records result fields.
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, update JobUpdate) error

	// Query returns jobs matching the filter, most recent first.
	Query(ctx context.Context, filter domain.JobFilter) ([]domain.SyncJob, error)

	// ReapStale marks non-terminal jobs last touched before the cutoff
	// as Failed with the given error text, freeing their per-key slot.
	// Returns the IDs of the reaped jobs.
	ReapStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error)
}
