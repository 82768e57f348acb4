package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/logger"
)

// Ensure Router implements the interface.
var _ driving.IngestionRouter = (*Router)(nil)

// ProcessorResolver looks up the processor for a "source/stream" key.
// Implemented by the processor registry.
type ProcessorResolver interface {
	// Resolve returns the processor for the key, or nil if none is
	// registered.
	Resolve(sourceType, streamName string) driven.RecordProcessor
}

// Router is the push-path counterpart to the Engine: it validates
// inbound batches, fans records out to per-record processors, tracks
// accept/reject counts and advances the checkpoint from the
// caller-supplied token.
type Router struct {
	catalog     driving.Catalog
	activities  driven.ActivityStore
	checkpoints driven.CheckpointStore
	processors  ProcessorResolver
}

// NewRouter creates an ingestion router.
func NewRouter(
	catalog driving.Catalog,
	activities driven.ActivityStore,
	checkpoints driven.CheckpointStore,
	processors ProcessorResolver,
) *Router {
	return &Router{
		catalog:     catalog,
		activities:  activities,
		checkpoints: checkpoints,
		processors:  processors,
	}
}

// Ingest processes one pushed batch. A single record's failure
// increments the rejected count and never aborts the remaining
// records; one malformed sample must not drop a whole batch.
func (r *Router) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResponse, error) {
	// Whole-batch validation: the (source, stream) pair must be one
	// the catalog declares.
	descriptor := r.catalog.Describe(req.Source)
	if descriptor == nil || descriptor.Stream(req.Stream) == nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Source, req.Stream, domain.ErrUnknownSourceStream)
	}

	processor := r.processors.Resolve(req.Source, req.Stream)
	if processor == nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Source, req.Stream, domain.ErrUnknownSourceStream)
	}

	// The activity is inserted before processing so even a crash
	// mid-batch leaves an audit trail with the attempted count.
	activity := domain.PipelineActivity{
		ID:          uuid.NewString(),
		SourceType:  req.Source,
		StreamName:  req.Stream,
		DeviceID:    req.DeviceID,
		Status:      domain.ActivityRunning,
		RecordCount: len(req.Records),
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.activities.Insert(ctx, activity); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}

	logger.Debug("Ingesting %d records for %s/%s from device %s (activity %s)",
		len(req.Records), req.Source, req.Stream, req.DeviceID, activity.ID)

	accepted, rejected := 0, 0
	for _, record := range req.Records {
		if err := processor.Process(ctx, record); err != nil {
			rejected++
			logger.Warn("Rejected record for %s/%s: %v", req.Source, req.Stream, err)
			continue
		}
		accepted++
	}

	// Checkpoint bookkeeping is decoupled from ingestion acceptance:
	// persistence failure degrades to a warning, never a request error.
	nextCheckpoint := ""
	if req.Checkpoint != "" {
		cp := domain.Checkpoint{
			SourceID:   req.Source,
			StreamName: req.Stream,
			Cursor:     req.Checkpoint,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := r.checkpoints.Set(ctx, cp); err != nil {
			log.Printf("router: failed to persist checkpoint for %s/%s: %v", req.Source, req.Stream, err)
		} else {
			nextCheckpoint = req.Checkpoint
		}
	}

	if err := r.activities.Finalize(ctx, activity.ID, domain.ActivityCompleted, accepted, ""); err != nil {
		log.Printf("router: failed to finalize activity %s: %v", activity.ID, err)
	}

	return &driving.IngestResponse{
		Accepted:       accepted,
		Rejected:       rejected,
		NextCheckpoint: nextCheckpoint,
		ActivityID:     activity.ID,
	}, nil
}
