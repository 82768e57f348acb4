package driven

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// CredentialProvider yields a valid credential for a source, refreshing
// expired OAuth tokens behind the seam. The engine only reacts to
// failures by failing the job with domain.ErrReauthRequired.
type CredentialProvider interface {
	// GetValidCredential returns a fresh credential for the source.
	// Returns nil credential with nil error for no-auth sources.
	GetValidCredential(ctx context.Context, sourceID string) (*domain.Credential, error)
}

// CredentialsStore persists raw credentials for sources.
type CredentialsStore interface {
	// Save stores or updates a source's credential.
	Save(ctx context.Context, cred domain.Credential) error

	// Get retrieves a source's credential.
	// Returns domain.ErrNotFound if the source has none.
	Get(ctx context.Context, sourceID string) (*domain.Credential, error)

	// Delete removes a source's credential.
	Delete(ctx context.Context, sourceID string) error
}
