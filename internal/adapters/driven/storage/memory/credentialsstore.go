package memory

import (
	"context"
	"sync"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore is an in-memory implementation of driven.CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential
}

// NewCredentialsStore creates a new in-memory credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{
		creds: make(map[string]domain.Credential),
	}
}

// Save stores or updates a source's credential.
func (s *CredentialsStore) Save(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.SourceID] = cred
	return nil
}

// Get retrieves a source's credential.
func (s *CredentialsStore) Get(_ context.Context, sourceID string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cred, nil
}

// Delete removes a source's credential. Deleting a missing credential
// is a no-op so source deletion can cascade unconditionally.
func (s *CredentialsStore) Delete(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, sourceID)
	return nil
}
