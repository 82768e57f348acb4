package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/core/domain"
)

func TestSourceStore_SaveAndGet(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	source := domain.Source{ID: "src-1", Type: "google", Name: "Personal", Active: true}
	require.NoError(t, store.Save(ctx, source))

	saved, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "google", saved.Type)
	assert.True(t, saved.Active)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestSourceStore_Save_PreservesCreatedAt(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Type: "google", Active: true}))
	first, err := store.Get(ctx, "src-1")
	require.NoError(t, err)

	first.Name = "Renamed"
	require.NoError(t, store.Save(ctx, *first))

	second, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", second.Name)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSourceStore_Get_NotFound(t *testing.T) {
	store := NewSourceStore()

	source, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, source)
}

func TestSourceStore_Delete_CascadesStreams(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Type: "google"}))
	require.NoError(t, store.SaveStream(ctx, domain.Stream{SourceID: "src-1", Name: "calendar", Enabled: true}))

	require.NoError(t, store.Delete(ctx, "src-1"))

	_, err := store.Get(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetStream(ctx, "src-1", "calendar")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_SetLastError(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Type: "google"}))
	require.NoError(t, store.SetLastError(ctx, "src-1", "rate limited"))

	saved, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "rate limited", saved.LastError)

	// Clearing
	require.NoError(t, store.SetLastError(ctx, "src-1", ""))
	saved, err = store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Empty(t, saved.LastError)
}

func TestSourceStore_SaveStream_RequiresSource(t *testing.T) {
	store := NewSourceStore()

	err := store.SaveStream(context.Background(), domain.Stream{SourceID: "nonexistent", Name: "calendar"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_ListStreams_SortedByName(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Type: "google"}))
	require.NoError(t, store.SaveStream(ctx, domain.Stream{SourceID: "src-1", Name: "gmail"}))
	require.NoError(t, store.SaveStream(ctx, domain.Stream{SourceID: "src-1", Name: "calendar"}))

	streams, err := store.ListStreams(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "calendar", streams[0].Name)
	assert.Equal(t, "gmail", streams[1].Name)
}

func TestSourceStore_TouchStreamSync(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Type: "google"}))
	require.NoError(t, store.SaveStream(ctx, domain.Stream{SourceID: "src-1", Name: "calendar"}))

	require.NoError(t, store.TouchStreamSync(ctx, "src-1", "calendar"))

	stream, err := store.GetStream(ctx, "src-1", "calendar")
	require.NoError(t, err)
	assert.False(t, stream.LastSyncAt.IsZero())
}
