package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/core/domain"
)

func TestCredentialsStore_RoundTrip(t *testing.T) {
	store := NewCredentialsStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cred := domain.Credential{
		SourceID:     "src-1",
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, store.Save(ctx, cred))

	got, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)

	// Save replaces, supporting token rotation.
	cred.AccessToken = "token-2"
	require.NoError(t, store.Save(ctx, cred))
	got, err = store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.AccessToken)
}

func TestCredentialsStore_Delete(t *testing.T) {
	store := NewCredentialsStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Credential{SourceID: "src-1", APIKey: "key"}))
	require.NoError(t, store.Delete(ctx, "src-1"))

	_, err := store.Get(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, "src-1"))
}
