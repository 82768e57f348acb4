package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure ActivityStore implements the interface.
var _ driven.ActivityStore = (*ActivityStore)(nil)

// ActivityStore is an in-memory implementation of driven.ActivityStore.
type ActivityStore struct {
	mu         sync.RWMutex
	activities map[string]domain.PipelineActivity
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		activities: make(map[string]domain.PipelineActivity),
	}
}

// Insert records a new activity.
func (s *ActivityStore) Insert(_ context.Context, activity domain.PipelineActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activities[activity.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.activities[activity.ID] = activity
	return nil
}

// Finalize sets the terminal status and processed count.
func (s *ActivityStore) Finalize(_ context.Context, activityID string, status domain.ActivityStatus, processed int, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[activityID]
	if !ok {
		return domain.ErrNotFound
	}

	activity.Status = status
	activity.RecordsProcessed = processed
	activity.Error = errText
	activity.FinishedAt = time.Now().UTC()
	s.activities[activityID] = activity
	return nil
}

// Get retrieves an activity by ID.
func (s *ActivityStore) Get(_ context.Context, activityID string) (*domain.PipelineActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[activityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &activity, nil
}

// List returns activities for a (source type, stream), most recent first.
func (s *ActivityStore) List(_ context.Context, sourceType, streamName string, limit int) ([]domain.PipelineActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PipelineActivity //nolint:prealloc // size unknown until filtered
	for _, activity := range s.activities {
		if sourceType != "" && activity.SourceType != sourceType {
			continue
		}
		if streamName != "" && activity.StreamName != streamName {
			continue
		}
		result = append(result, activity)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
