package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
)

// SourceService manages source and stream lifecycle: registration,
// pause/resume, stream enablement and destructive deletion.
type SourceService struct {
	sourceStore driven.SourceStore
	checkpoints driven.CheckpointStore
	credentials driven.CredentialsStore
	catalog     driving.Catalog
}

// NewSourceService creates a source lifecycle service.
func NewSourceService(
	sourceStore driven.SourceStore,
	checkpoints driven.CheckpointStore,
	credentials driven.CredentialsStore,
	catalog driving.Catalog,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		checkpoints: checkpoints,
		credentials: credentials,
		catalog:     catalog,
	}
}

// Create registers a new source of a known connector type. Device
// sources carry a device ID; cloud sources are created after OAuth
// completion with their credential saved separately.
func (s *SourceService) Create(ctx context.Context, sourceType, name, deviceID string) (*domain.Source, error) {
	if s.catalog.Describe(sourceType) == nil {
		return nil, fmt.Errorf("source type %s: %w", sourceType, domain.ErrUnsupportedType)
	}

	source := domain.Source{
		ID:       uuid.NewString(),
		Type:     sourceType,
		Name:     name,
		DeviceID: deviceID,
		Active:   true,
	}
	if err := s.sourceStore.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	return &source, nil
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// Pause soft-disables a source. Streams and history are kept.
func (s *SourceService) Pause(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

// Resume re-enables a paused source.
func (s *SourceService) Resume(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *SourceService) setActive(ctx context.Context, id string, active bool) error {
	source, err := s.sourceStore.Get(ctx, id)
	if err != nil {
		return err
	}
	source.Active = active
	if err := s.sourceStore.Save(ctx, *source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}
	return nil
}

// Delete removes a source and cascades to its streams, checkpoints and
// credentials. This is the explicit destructive operation; everyday
// disabling goes through Pause.
func (s *SourceService) Delete(ctx context.Context, id string) error {
	streams, err := s.sourceStore.ListStreams(ctx, id)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}
	for _, stream := range streams {
		if err := s.checkpoints.Delete(ctx, id, stream.Name); err != nil {
			return fmt.Errorf("delete checkpoint %s/%s: %w", id, stream.Name, err)
		}
	}
	if err := s.credentials.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	if err := s.sourceStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

// EnableStream enables (creating if necessary) a stream on a source.
// The stream name must be one the source's connector type declares.
func (s *SourceService) EnableStream(ctx context.Context, sourceID, name string, config map[string]string) (*domain.Stream, error) {
	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	descriptor := s.catalog.Describe(source.Type)
	if descriptor == nil || descriptor.Stream(name) == nil {
		return nil, fmt.Errorf("%s/%s: %w", source.Type, name, domain.ErrUnknownStream)
	}

	stream, err := s.sourceStore.GetStream(ctx, sourceID, name)
	if err != nil {
		stream = &domain.Stream{
			SourceID:    sourceID,
			Name:        name,
			TargetTable: fmt.Sprintf("stream_%s_%s", source.Type, name),
		}
	}
	stream.Enabled = true
	if config != nil {
		stream.Config = config
	}

	if err := s.sourceStore.SaveStream(ctx, *stream); err != nil {
		return nil, fmt.Errorf("save stream: %w", err)
	}
	return stream, nil
}

// ListStreams returns all streams configured on a source.
func (s *SourceService) ListStreams(ctx context.Context, sourceID string) ([]domain.Stream, error) {
	return s.sourceStore.ListStreams(ctx, sourceID)
}

// DisableStream disables a stream without removing its checkpoint.
func (s *SourceService) DisableStream(ctx context.Context, sourceID, name string) error {
	stream, err := s.sourceStore.GetStream(ctx, sourceID, name)
	if err != nil {
		return err
	}
	stream.Enabled = false
	if err := s.sourceStore.SaveStream(ctx, *stream); err != nil {
		return fmt.Errorf("save stream: %w", err)
	}
	return nil
}

// UpdateStreamSchedule replaces the stream's cron schedule.
func (s *SourceService) UpdateStreamSchedule(ctx context.Context, sourceID, name, cronSchedule string) error {
	stream, err := s.sourceStore.GetStream(ctx, sourceID, name)
	if err != nil {
		return err
	}
	stream.CronSchedule = cronSchedule
	if err := s.sourceStore.SaveStream(ctx, *stream); err != nil {
		return fmt.Errorf("save stream: %w", err)
	}
	return nil
}
