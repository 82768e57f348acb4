package driven

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// SourceStore persists source configurations and their streams.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Delete removes a source and cascades to its streams.
	Delete(ctx context.Context, id string) error

	// List returns all configured sources.
	List(ctx context.Context) ([]domain.Source, error)

	// SetLastError records or clears the source's last sync error.
	SetLastError(ctx context.Context, id, errText string) error

	// SaveStream stores or updates a stream within a source.
	SaveStream(ctx context.Context, stream domain.Stream) error

	// GetStream retrieves one stream. Returns domain.ErrNotFound if absent.
	GetStream(ctx context.Context, sourceID, name string) (*domain.Stream, error)

	// ListStreams returns all streams for a source.
	ListStreams(ctx context.Context, sourceID string) ([]domain.Stream, error)

	// TouchStreamSync updates the stream's last-sync timestamp.
	TouchStreamSync(ctx context.Context, sourceID, name string) error
}
