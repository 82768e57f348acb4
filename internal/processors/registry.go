package processors

import (
	"sync"

	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Registry resolves record processors by (source type, stream name).
type Registry struct {
	mu         sync.RWMutex
	processors map[string]driven.RecordProcessor
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[string]driven.RecordProcessor),
	}
}

// NewDefaultRegistry creates a registry with all built-in push stream
// processors registered, writing to the given sink.
func NewDefaultRegistry(records driven.RecordStore) *Registry {
	r := NewRegistry()
	r.Register(NewHealthKitProcessor(records))
	r.Register(NewLocationProcessor(records))
	r.Register(NewMicProcessor(records))
	r.Register(NewAppsProcessor(records))
	r.Register(NewIMessageProcessor(records))
	return r
}

// Register adds a processor under its stream key.
func (r *Registry) Register(p driven.RecordProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[p.Stream()] = p
}

// Resolve returns the processor for a (source type, stream) pair, or
// nil if none is registered.
func (r *Registry) Resolve(sourceType, streamName string) driven.RecordProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processors[sourceType+"/"+streamName]
}
