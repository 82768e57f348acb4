package domain

import "time"

// Credential is a ready-to-use credential for one source. For OAuth
// sources the access token is guaranteed fresh by the provider that
// issued it; refresh mechanics are not the engine's concern.
type Credential struct {
	// SourceID is the source this credential belongs to.
	SourceID string

	// AccessToken is a bearer token for OAuth and device-token sources.
	AccessToken string

	// RefreshToken is retained so rotated tokens can be persisted.
	RefreshToken string

	// Expiry is when the access token expires. Zero means non-expiring.
	Expiry time.Time

	// APIKey is set for api-key sources instead of tokens.
	APIKey string
}

// Expired reports whether the access token is past its expiry,
// with a small window to avoid using a token about to lapse.
func (c *Credential) Expired(window time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry.Add(-window))
}
