package driving

import "github.com/ariata/ariata/internal/core/domain"

// Catalog exposes the static connector registry for capability checks
// and catalog browsing. Pure lookup, no state.
type Catalog interface {
	// Describe returns the descriptor for a source type, or nil if the
	// type is unknown.
	Describe(sourceType string) *domain.ConnectorDescriptor

	// List returns all known connector descriptors.
	List() []domain.ConnectorDescriptor
}
