package driving

import (
	"context"
	"encoding/json"
	"time"
)

// IngestRequest is one pushed batch from a device or agent.
type IngestRequest struct {
	// Source is the source type identifier (e.g., "ios", "mac").
	Source string `json:"source"`

	// Stream is the stream within the source (e.g., "healthkit").
	Stream string `json:"stream"`

	// DeviceID identifies the pushing device instance.
	DeviceID string `json:"device_id"`

	// Records are opaque JSON documents, dispatched per-record.
	Records []json.RawMessage `json:"records"`

	// Checkpoint is an optional device-supplied cursor token.
	Checkpoint string `json:"checkpoint,omitempty"`

	// Timestamp is when the device assembled the batch.
	Timestamp time.Time `json:"timestamp"`
}

// IngestResponse reports batch acceptance to the caller.
type IngestResponse struct {
	// Accepted and Rejected count per-record outcomes.
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`

	// NextCheckpoint is an opaque hint for the device's next batch.
	// Empty when no checkpoint was supplied or persistence failed.
	NextCheckpoint string `json:"next_checkpoint,omitempty"`

	// ActivityID correlates this batch with its ledger record.
	ActivityID string `json:"activity_id"`
}

// IngestionRouter accepts pushed batches and dispatches each record to
// its stream processor. Per-record failures are counted, never
// propagated as request failures.
type IngestionRouter interface {
	// Ingest processes one batch. Fails the whole batch only when the
	// (source, stream) combination is unknown or the activity ledger
	// insert fails.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error)
}
