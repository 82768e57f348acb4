package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
	streams map[string]domain.Stream
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]domain.Source),
		streams: make(map[string]domain.Stream),
	}
}

func streamKey(sourceID, name string) string {
	return sourceID + "/" + name
}

// Save stores or updates a source.
func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.sources[source.ID]; ok {
		source.CreatedAt = existing.CreatedAt
	} else if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	s.sources[source.ID] = source
	return nil
}

// Get retrieves a source by ID.
func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// Delete removes a source and its streams.
func (s *SourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sources, id)
	for key, stream := range s.streams {
		if stream.SourceID == id {
			delete(s.streams, key)
		}
	}
	return nil
}

// List returns all sources sorted by creation time.
func (s *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Source, 0, len(s.sources))
	for _, source := range s.sources {
		result = append(result, source)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// SetLastError records or clears the source's last sync error.
func (s *SourceStore) SetLastError(_ context.Context, id, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.LastError = errText
	source.UpdatedAt = time.Now().UTC()
	s.sources[id] = source
	return nil
}

// SaveStream stores or updates a stream within a source.
func (s *SourceStore) SaveStream(_ context.Context, stream domain.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[stream.SourceID]; !ok {
		return domain.ErrNotFound
	}
	s.streams[streamKey(stream.SourceID, stream.Name)] = stream
	return nil
}

// GetStream retrieves one stream.
func (s *SourceStore) GetStream(_ context.Context, sourceID, name string) (*domain.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, ok := s.streams[streamKey(sourceID, name)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &stream, nil
}

// ListStreams returns all streams for a source sorted by name.
func (s *SourceStore) ListStreams(_ context.Context, sourceID string) ([]domain.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Stream //nolint:prealloc // size unknown until filtered
	for _, stream := range s.streams {
		if stream.SourceID == sourceID {
			result = append(result, stream)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// TouchStreamSync updates the stream's last-sync timestamp.
func (s *SourceStore) TouchStreamSync(_ context.Context, sourceID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := streamKey(sourceID, name)
	stream, ok := s.streams[key]
	if !ok {
		return domain.ErrNotFound
	}
	stream.LastSyncAt = time.Now().UTC()
	s.streams[key] = stream
	return nil
}
