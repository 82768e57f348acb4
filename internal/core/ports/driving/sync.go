package driving

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// SyncEngine owns the sync job lifecycle for pull sources: admission,
// background execution, cancellation and history queries.
type SyncEngine interface {
	// TriggerSync admits a sync for the given stream and returns the
	// tracked job immediately; the fetch runs as background work the
	// caller can poll or cancel. requested may be nil to let the engine
	// choose the effective mode from the stream's capabilities and the
	// stored checkpoint.
	//
	// Admission failures: domain.ErrUnknownStream, ErrStreamDisabled,
	// ErrSourcePaused, ErrSyncConflict, ErrUnsupportedMode.
	TriggerSync(ctx context.Context, sourceID, streamName string, requested *domain.SyncMode) (*domain.SyncJob, error)

	// Cancel requests cooperative cancellation of a job.
	// Returns domain.ErrJobNotFound or domain.ErrJobAlreadyDone.
	Cancel(ctx context.Context, jobID string) error

	// Job retrieves a job by ID.
	Job(ctx context.Context, jobID string) (*domain.SyncJob, error)

	// QueryJobs returns jobs matching the filter, most recent first.
	QueryJobs(ctx context.Context, filter domain.JobFilter) ([]domain.SyncJob, error)
}
