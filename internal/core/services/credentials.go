package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/logger"
)

// refreshWindow is how close to expiry a token may get before it is
// refreshed rather than used.
const refreshWindow = 5 * time.Minute

// Ensure CredentialService implements the interface.
var _ driven.CredentialProvider = (*CredentialService)(nil)

// CredentialService yields valid credentials for sources, refreshing
// OAuth tokens transparently. Token exchange during the initial OAuth
// flow happens elsewhere; this service only keeps stored credentials
// usable.
type CredentialService struct {
	store        driven.CredentialsStore
	sourceStore  driven.SourceStore
	catalog      driving.Catalog
	oauthConfigs map[string]*oauth2.Config
}

// NewCredentialService creates a credential provider. oauthConfigs maps
// source type to its OAuth2 endpoint configuration; types without an
// entry can use stored tokens but never refresh them.
func NewCredentialService(
	store driven.CredentialsStore,
	sourceStore driven.SourceStore,
	catalog driving.Catalog,
	oauthConfigs map[string]*oauth2.Config,
) *CredentialService {
	if oauthConfigs == nil {
		oauthConfigs = make(map[string]*oauth2.Config)
	}
	return &CredentialService{
		store:        store,
		sourceStore:  sourceStore,
		catalog:      catalog,
		oauthConfigs: oauthConfigs,
	}
}

// GetValidCredential returns a fresh credential for the source.
// Returns nil with nil error for no-auth and device-token sources.
// A missing or unrefreshable credential is domain.ErrReauthRequired.
func (s *CredentialService) GetValidCredential(ctx context.Context, sourceID string) (*domain.Credential, error) {
	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	descriptor := s.catalog.Describe(source.Type)
	if descriptor == nil {
		return nil, fmt.Errorf("source type %s: %w", source.Type, domain.ErrUnsupportedType)
	}

	switch descriptor.Auth {
	case domain.AuthNone, domain.AuthDeviceToken:
		// Device sources authenticate at the ingestion boundary, not here.
		return nil, nil
	case domain.AuthAPIKey, domain.AuthOAuth2:
		// Handled below.
	}

	cred, err := s.store.Get(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("source %s has no credentials: %w", sourceID, domain.ErrReauthRequired)
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	if descriptor.Auth == domain.AuthAPIKey {
		if cred.APIKey == "" {
			return nil, fmt.Errorf("source %s has no API key: %w", sourceID, domain.ErrReauthRequired)
		}
		return cred, nil
	}

	if !cred.Expired(refreshWindow) {
		return cred, nil
	}
	return s.refresh(ctx, source.Type, cred)
}

// refresh exchanges the refresh token for a new access token and
// persists the rotated credential.
func (s *CredentialService) refresh(ctx context.Context, sourceType string, cred *domain.Credential) (*domain.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("access token expired and no refresh token: %w", domain.ErrReauthRequired)
	}

	config, ok := s.oauthConfigs[sourceType]
	if !ok {
		return nil, fmt.Errorf("no oauth config for %s: %w", sourceType, domain.ErrReauthRequired)
	}

	stale := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}
	fresh, err := config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w: %w", domain.ErrReauthRequired, err)
	}

	rotated := domain.Credential{
		SourceID:     cred.SourceID,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		Expiry:       fresh.Expiry,
	}
	if rotated.RefreshToken == "" {
		// Providers may omit the refresh token on rotation; keep the old one.
		rotated.RefreshToken = cred.RefreshToken
	}
	if err := s.store.Save(ctx, rotated); err != nil {
		return nil, fmt.Errorf("save rotated credentials: %w", err)
	}

	logger.Debug("Refreshed OAuth token for source %s", cred.SourceID)
	return &rotated, nil
}
