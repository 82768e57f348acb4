package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// defaultQueryLimit bounds unfiltered queries.
const defaultQueryLimit = 50

// JobStore is an in-memory implementation of driven.JobStore.
// The conditional insert and status transitions happen under one
// mutex, giving the same atomicity the SQLite store gets from its
// partial unique index.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.SyncJob
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.SyncJob),
	}
}

// InsertIfAbsentActive atomically inserts the job unless an active job
// already holds the (source, stream) slot.
func (s *JobStore) InsertIfAbsentActive(_ context.Context, job domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.SourceID == job.SourceID &&
			existing.StreamName == job.StreamName &&
			!existing.Status.IsTerminal() {
			return domain.ErrSyncConflict
		}
	}

	s.jobs[job.ID] = job
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, jobID string) (*domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// UpdateStatus transitions a job and records result fields. Terminal
// jobs are immutable; touching one returns domain.ErrJobAlreadyDone.
func (s *JobStore) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, update driven.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobAlreadyDone
	}

	job.Status = status
	if update.StartedAt != nil {
		job.StartedAt = *update.StartedAt
	}
	if update.FinishedAt != nil {
		job.FinishedAt = *update.FinishedAt
	}
	if update.RecordsFetched != nil {
		job.RecordsFetched = *update.RecordsFetched
	}
	if update.RecordsWritten != nil {
		job.RecordsWritten = *update.RecordsWritten
	}
	if update.Error != nil {
		job.Error = *update.Error
	}

	s.jobs[jobID] = job
	return nil
}

// Query returns jobs matching the filter, most recent first.
func (s *JobStore) Query(_ context.Context, filter domain.JobFilter) ([]domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SyncJob //nolint:prealloc // size unknown until filtered
	for _, job := range s.jobs {
		if filter.SourceID != "" && job.SourceID != filter.SourceID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, job.Status) {
			continue
		}
		result = append(result, job)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.After(result[j].RequestedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ReapStale marks non-terminal jobs last touched before the cutoff as
// Failed with the given reason.
func (s *JobStore) ReapStale(_ context.Context, cutoff time.Time, reason string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reaped []string
	now := time.Now().UTC()
	for id, job := range s.jobs {
		if job.Status.IsTerminal() {
			continue
		}
		touched := job.StartedAt
		if touched.IsZero() {
			touched = job.RequestedAt
		}
		if touched.After(cutoff) {
			continue
		}

		job.Status = domain.JobFailed
		job.Error = reason
		job.FinishedAt = now
		s.jobs[id] = job
		reaped = append(reaped, id)
	}
	return reaped, nil
}

func containsStatus(statuses []domain.JobStatus, status domain.JobStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
