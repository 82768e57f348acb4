package spool

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/core/ports/driving"
)

// recordingRouter captures ingested batches.
type recordingRouter struct {
	mu       sync.Mutex
	requests []driving.IngestRequest
	err      error
}

func (r *recordingRouter) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.requests = append(r.requests, req)
	return &driving.IngestResponse{Accepted: len(req.Records), ActivityID: "act-1"}, nil
}

func (r *recordingRouter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func TestWatcher_DrainsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	batch := `{"source":"mac","stream":"apps","device_id":"device-1","records":[{"app_name":"Safari"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch-1.json"), []byte(batch), 0600))

	router := &recordingRouter{}
	watcher := NewWatcher(dir, router)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	require.Eventually(t, func() bool { return router.count() == 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "mac", router.requests[0].Source)
	assert.Equal(t, "apps", router.requests[0].Stream)

	// Processed file moved to done/
	_, err := os.Stat(filepath.Join(dir, doneDir, "batch-1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "batch-1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatcher_PicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	router := &recordingRouter{}
	watcher := NewWatcher(dir, router)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	// Give the watch time to establish
	time.Sleep(100 * time.Millisecond)

	batch := `{"source":"ios","stream":"healthkit","device_id":"device-1","records":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch-2.json"), []byte(batch), 0600))

	require.Eventually(t, func() bool { return router.count() == 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done
}

func TestWatcher_InvalidFileMovedToFailed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0600))

	router := &recordingRouter{}
	watcher := NewWatcher(dir, router)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, failedDir, "garbage.json"))
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, router.count())
}

func TestWatcher_IgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0600))

	router := &recordingRouter{}
	watcher := NewWatcher(dir, router)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = watcher.Start(ctx)

	assert.Zero(t, router.count())
	_, err := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}
