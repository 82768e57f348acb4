package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/logger"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory resolves connectors from a registration map keyed by
// (source type, stream name). Credentials are resolved at creation
// time so every connector invocation starts with a fresh token.
type Factory struct {
	mu          sync.RWMutex
	builders    map[string]driven.ConnectorBuilder
	credentials driven.CredentialProvider
	records     driven.RecordStore
}

// NewFactory creates an empty connector factory.
func NewFactory(credentials driven.CredentialProvider, records driven.RecordStore) *Factory {
	return &Factory{
		builders:    make(map[string]driven.ConnectorBuilder),
		credentials: credentials,
		records:     records,
	}
}

// Register adds a builder for the given (source type, stream) pair.
func (f *Factory) Register(sourceType, streamName string, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[builderKey(sourceType, streamName)] = builder
	logger.Debug("Registered connector builder for %s/%s", sourceType, streamName)
}

// Create returns a Connector for the given source and stream.
func (f *Factory) Create(ctx context.Context, source domain.Source, streamName string) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[builderKey(source.Type, streamName)]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no connector for %s/%s: %w", source.Type, streamName, domain.ErrUnsupportedType)
	}

	creds, err := f.credentials.GetValidCredential(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials for %s: %w", source.ID, err)
	}

	connector, err := builder(source, creds, f.records)
	if err != nil {
		return nil, fmt.Errorf("building connector %s/%s: %w", source.Type, streamName, err)
	}
	return connector, nil
}

func builderKey(sourceType, streamName string) string {
	return sourceType + "/" + streamName
}
