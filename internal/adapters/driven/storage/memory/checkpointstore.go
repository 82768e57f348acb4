package memory

import (
	"context"
	"sync"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[string]domain.Checkpoint),
	}
}

func checkpointKey(sourceID, streamName string) string {
	return sourceID + "/" + streamName
}

// Get retrieves the checkpoint for a stream.
func (s *CheckpointStore) Get(_ context.Context, sourceID, streamName string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointKey(sourceID, streamName)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cp, nil
}

// Set stores or replaces the checkpoint for a stream.
func (s *CheckpointStore) Set(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpointKey(cp.SourceID, cp.StreamName)] = cp
	return nil
}

// Delete removes the checkpoint for a stream.
func (s *CheckpointStore) Delete(_ context.Context, sourceID, streamName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointKey(sourceID, streamName))
	return nil
}
