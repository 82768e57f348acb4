package google

import (
	"golang.org/x/oauth2"

	"github.com/ariata/ariata/internal/core/domain"
)

// TokenSource builds an oauth2.TokenSource from a resolved credential.
// The credential is already fresh; refresh mechanics live behind the
// CredentialProvider port, not in the connectors.
func TokenSource(creds *domain.Credential) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
		Expiry:      creds.Expiry,
	})
}
