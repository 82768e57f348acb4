package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

func newTestJob(id, sourceID, stream string, status domain.JobStatus) domain.SyncJob {
	return domain.SyncJob{
		ID:          id,
		SourceID:    sourceID,
		StreamName:  stream,
		Status:      status,
		Mode:        domain.Incremental(""),
		RequestedAt: time.Now().UTC(),
	}
}

func TestNewJobStore(t *testing.T) {
	store := NewJobStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.jobs)
}

func TestJobStore_InsertIfAbsentActive_Success(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	err := store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobPending))
	require.NoError(t, err)

	saved, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, saved.Status)
}

func TestJobStore_InsertIfAbsentActive_ConflictWithActive(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobRunning)))

	err := store.InsertIfAbsentActive(ctx, newTestJob("job-2", "src-1", "calendar", domain.JobPending))
	assert.ErrorIs(t, err, domain.ErrSyncConflict)

	// The loser must not be persisted
	_, err = store.Get(ctx, "job-2")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_InsertIfAbsentActive_CancellingStillBlocks(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobCancelling)))

	err := store.InsertIfAbsentActive(ctx, newTestJob("job-2", "src-1", "calendar", domain.JobPending))
	assert.ErrorIs(t, err, domain.ErrSyncConflict)
}

func TestJobStore_InsertIfAbsentActive_TerminalDoesNotBlock(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	for _, status := range []domain.JobStatus{domain.JobCompleted, domain.JobFailed, domain.JobCancelled} {
		require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-"+string(status), "src-term", "calendar", status)))
	}

	err := store.InsertIfAbsentActive(ctx, newTestJob("job-new", "src-term", "calendar", domain.JobPending))
	assert.NoError(t, err)
}

func TestJobStore_InsertIfAbsentActive_DifferentStreamsIndependent(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobRunning)))

	assert.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-2", "src-1", "gmail", domain.JobPending)))
	assert.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-3", "src-2", "calendar", domain.JobPending)))
}

func TestJobStore_InsertIfAbsentActive_ConcurrentSingleWinner(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(n int) {
			defer wg.Done()
			job := newTestJob("job-"+string(rune('A'+n)), "src-1", "calendar", domain.JobPending)
			errs[n] = store.InsertIfAbsentActive(ctx, job)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrSyncConflict)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestJobStore_Get_NotFound(t *testing.T) {
	store := NewJobStore()

	job, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Nil(t, job)
}

func TestJobStore_UpdateStatus_Success(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobPending)))

	started := time.Now().UTC()
	err := store.UpdateStatus(ctx, "job-1", domain.JobRunning, driven.JobUpdate{StartedAt: &started})
	require.NoError(t, err)

	finished := started.Add(time.Minute)
	fetched, written := 42, 40
	err = store.UpdateStatus(ctx, "job-1", domain.JobCompleted, driven.JobUpdate{
		FinishedAt:     &finished,
		RecordsFetched: &fetched,
		RecordsWritten: &written,
	})
	require.NoError(t, err)

	saved, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, saved.Status)
	assert.Equal(t, 42, saved.RecordsFetched)
	assert.Equal(t, 40, saved.RecordsWritten)
	assert.Equal(t, started.Unix(), saved.StartedAt.Unix())
	assert.Equal(t, finished.Unix(), saved.FinishedAt.Unix())
}

func TestJobStore_UpdateStatus_TerminalIsImmutable(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.InsertIfAbsentActive(ctx, newTestJob("job-1", "src-1", "calendar", domain.JobPending)))
	require.NoError(t, store.UpdateStatus(ctx, "job-1", domain.JobCancelled, driven.JobUpdate{}))

	err := store.UpdateStatus(ctx, "job-1", domain.JobRunning, driven.JobUpdate{})
	assert.ErrorIs(t, err, domain.ErrJobAlreadyDone)

	// Status must be unchanged
	saved, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, saved.Status)
}

func TestJobStore_UpdateStatus_NotFound(t *testing.T) {
	store := NewJobStore()

	err := store.UpdateStatus(context.Background(), "nonexistent", domain.JobRunning, driven.JobUpdate{})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_Query_FiltersAndOrder(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	base := time.Now().UTC()
	jobs := []domain.SyncJob{
		{ID: "job-1", SourceID: "src-1", StreamName: "calendar", Status: domain.JobCompleted, RequestedAt: base},
		{ID: "job-2", SourceID: "src-1", StreamName: "gmail", Status: domain.JobFailed, RequestedAt: base.Add(time.Minute)},
		{ID: "job-3", SourceID: "src-2", StreamName: "activities", Status: domain.JobRunning, RequestedAt: base.Add(2 * time.Minute)},
	}
	for _, job := range jobs {
		require.NoError(t, store.InsertIfAbsentActive(ctx, job))
	}

	// Most recent first, no filter
	all, err := store.Query(ctx, domain.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "job-3", all[0].ID)
	assert.Equal(t, "job-1", all[2].ID)

	// By source
	bySource, err := store.Query(ctx, domain.JobFilter{SourceID: "src-1"})
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.Equal(t, "job-2", bySource[0].ID)

	// By status
	byStatus, err := store.Query(ctx, domain.JobFilter{Statuses: []domain.JobStatus{domain.JobFailed}})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "job-2", byStatus[0].ID)

	// Limit
	limited, err := store.Query(ctx, domain.JobFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "job-3", limited[0].ID)
}

func TestJobStore_ReapStale(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	stale := domain.SyncJob{
		ID: "job-stale", SourceID: "src-1", StreamName: "calendar",
		Status: domain.JobRunning, RequestedAt: old, StartedAt: old,
	}
	fresh := domain.SyncJob{
		ID: "job-fresh", SourceID: "src-2", StreamName: "calendar",
		Status: domain.JobRunning, RequestedAt: time.Now().UTC(), StartedAt: time.Now().UTC(),
	}
	done := domain.SyncJob{
		ID: "job-done", SourceID: "src-3", StreamName: "calendar",
		Status: domain.JobCompleted, RequestedAt: old, StartedAt: old,
	}
	for _, job := range []domain.SyncJob{stale, fresh, done} {
		require.NoError(t, store.InsertIfAbsentActive(ctx, job))
	}

	reaped, err := store.ReapStale(ctx, time.Now().UTC().Add(-30*time.Minute), "abandoned")
	require.NoError(t, err)
	require.Len(t, reaped, 1)
	assert.Equal(t, "job-stale", reaped[0])

	saved, err := store.Get(ctx, "job-stale")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, saved.Status)
	assert.Equal(t, "abandoned", saved.Error)
	assert.False(t, saved.FinishedAt.IsZero())

	// Fresh and terminal jobs untouched
	savedFresh, _ := store.Get(ctx, "job-fresh")
	assert.Equal(t, domain.JobRunning, savedFresh.Status)
	savedDone, _ := store.Get(ctx, "job-done")
	assert.Equal(t, domain.JobCompleted, savedDone.Status)
}

func TestJobStore_ReapStale_FreesSlot(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.InsertIfAbsentActive(ctx, domain.SyncJob{
		ID: "job-stale", SourceID: "src-1", StreamName: "calendar",
		Status: domain.JobRunning, RequestedAt: old, StartedAt: old,
	}))

	// Slot is held before the reap
	err := store.InsertIfAbsentActive(ctx, newTestJob("job-new", "src-1", "calendar", domain.JobPending))
	require.ErrorIs(t, err, domain.ErrSyncConflict)

	_, err = store.ReapStale(ctx, time.Now().UTC(), "abandoned")
	require.NoError(t, err)

	// And free after
	err = store.InsertIfAbsentActive(ctx, newTestJob("job-new", "src-1", "calendar", domain.JobPending))
	assert.NoError(t, err)
}
