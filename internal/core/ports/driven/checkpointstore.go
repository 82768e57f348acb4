package driven

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// CheckpointStore persists the per-(source, stream) sync cursor.
// Cursors are opaque to everything but the owning connector.
type CheckpointStore interface {
	// Get retrieves the checkpoint for a stream.
	// Returns domain.ErrNotFound if no sync has ever completed.
	Get(ctx context.Context, sourceID, streamName string) (*domain.Checkpoint, error)

	// Set stores or replaces the checkpoint for a stream.
	Set(ctx context.Context, cp domain.Checkpoint) error

	// Delete removes the checkpoint, forcing the next sync to full history.
	Delete(ctx context.Context, sourceID, streamName string) error
}
