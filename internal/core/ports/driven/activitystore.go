package driven

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// ActivityStore persists pipeline activities (push-path batches).
// Activities are append-only; there is no per-stream exclusion.
type ActivityStore interface {
	// Insert records a new activity before batch processing starts, so
	// a crash mid-batch still leaves an audit trail.
	Insert(ctx context.Context, activity domain.PipelineActivity) error

	// Finalize sets the terminal status and processed count.
	Finalize(ctx context.Context, activityID string, status domain.ActivityStatus, processed int, errText string) error

	// Get retrieves an activity by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, activityID string) (*domain.PipelineActivity, error)

	// List returns activities for a (source type, stream), most recent
	// first, bounded by limit.
	List(ctx context.Context, sourceType, streamName string, limit int) ([]domain.PipelineActivity, error)
}
