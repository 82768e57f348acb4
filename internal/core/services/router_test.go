package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/adapters/driven/storage/memory"
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
)

// rejectingProcessor fails any record whose payload contains "bad".
type rejectingProcessor struct {
	processed int
}

func (p *rejectingProcessor) Stream() string { return "ios/healthkit" }

func (p *rejectingProcessor) Process(_ context.Context, record json.RawMessage) error {
	if strings.Contains(string(record), "bad") {
		return domain.ErrInvalidInput
	}
	p.processed++
	return nil
}

// stubResolver maps exactly one key to a processor.
type stubResolver struct {
	key       string
	processor driven.RecordProcessor
}

func (r *stubResolver) Resolve(sourceType, streamName string) driven.RecordProcessor {
	if sourceType+"/"+streamName == r.key {
		return r.processor
	}
	return nil
}

// failingCheckpoints simulates a checkpoint store outage.
type failingCheckpoints struct{}

func (f *failingCheckpoints) Get(context.Context, string, string) (*domain.Checkpoint, error) {
	return nil, domain.ErrNotFound
}
func (f *failingCheckpoints) Set(context.Context, domain.Checkpoint) error {
	return errors.New("disk full")
}
func (f *failingCheckpoints) Delete(context.Context, string, string) error { return nil }

func newTestRouter(checkpoints driven.CheckpointStore) (*Router, *memory.ActivityStore, *rejectingProcessor) {
	activities := memory.NewActivityStore()
	processor := &rejectingProcessor{}
	resolver := &stubResolver{key: "ios/healthkit", processor: processor}
	return NewRouter(NewCatalog(), activities, checkpoints, resolver), activities, processor
}

func healthkitBatch(records ...string) driving.IngestRequest {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		raw = append(raw, json.RawMessage(r))
	}
	return driving.IngestRequest{
		Source:    "ios",
		Stream:    "healthkit",
		DeviceID:  "device-1",
		Records:   raw,
		Timestamp: time.Now().UTC(),
	}
}

func TestRouter_Ingest_PerRecordIsolation(t *testing.T) {
	router, activities, processor := newTestRouter(memory.NewCheckpointStore())
	ctx := context.Background()

	resp, err := router.Ingest(ctx, healthkitBatch(
		`{"type":"step_count","value":100}`,
		`{"type":"bad sample"}`,
		`{"type":"heart_rate","value":62}`,
	))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Equal(t, 2, processor.processed)
	require.NotEmpty(t, resp.ActivityID)

	activity, err := activities.Get(ctx, resp.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityCompleted, activity.Status)
	assert.Equal(t, 3, activity.RecordCount)
	assert.Equal(t, 2, activity.RecordsProcessed)
	assert.False(t, activity.FinishedAt.IsZero())
}

func TestRouter_Ingest_UnknownSourceStream(t *testing.T) {
	router, activities, _ := newTestRouter(memory.NewCheckpointStore())
	ctx := context.Background()

	req := healthkitBatch(`{"type":"step_count"}`)
	req.Stream = "nonsense"
	_, err := router.Ingest(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnknownSourceStream)

	req = healthkitBatch(`{"type":"step_count"}`)
	req.Source = "nonsense"
	_, err = router.Ingest(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnknownSourceStream)

	// Whole-batch rejections leave no ledger row.
	listed, err := activities.List(ctx, "ios", "nonsense", 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRouter_Ingest_KnownStreamWithoutProcessor(t *testing.T) {
	// mac/apps is in the catalog but the resolver only knows
	// ios/healthkit.
	router, _, _ := newTestRouter(memory.NewCheckpointStore())

	req := healthkitBatch(`{"app_name":"Safari"}`)
	req.Source = "mac"
	req.Stream = "apps"
	_, err := router.Ingest(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUnknownSourceStream)
}

func TestRouter_Ingest_EmptyBatch(t *testing.T) {
	router, activities, _ := newTestRouter(memory.NewCheckpointStore())
	ctx := context.Background()

	resp, err := router.Ingest(ctx, healthkitBatch())
	require.NoError(t, err)
	assert.Zero(t, resp.Accepted)
	assert.Zero(t, resp.Rejected)

	// Even an empty batch is auditable.
	activity, err := activities.Get(ctx, resp.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityCompleted, activity.Status)
}

func TestRouter_Ingest_PersistsCheckpoint(t *testing.T) {
	checkpoints := memory.NewCheckpointStore()
	router, _, _ := newTestRouter(checkpoints)
	ctx := context.Background()

	req := healthkitBatch(`{"type":"step_count"}`)
	req.Checkpoint = "device-seq-42"
	resp, err := router.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "device-seq-42", resp.NextCheckpoint)

	cp, err := checkpoints.Get(ctx, "ios", "healthkit")
	require.NoError(t, err)
	assert.Equal(t, "device-seq-42", cp.Cursor)
}

func TestRouter_Ingest_CheckpointFailureDegrades(t *testing.T) {
	router, _, _ := newTestRouter(&failingCheckpoints{})
	ctx := context.Background()

	req := healthkitBatch(`{"type":"step_count"}`)
	req.Checkpoint = "device-seq-42"
	resp, err := router.Ingest(ctx, req)

	// Ingestion acceptance must not depend on checkpoint bookkeeping.
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Empty(t, resp.NextCheckpoint)
}
