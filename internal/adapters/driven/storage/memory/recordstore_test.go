package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStore_AppendAndCount(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	count, err := store.Count(ctx, "stream_google_calendar")
	require.NoError(t, err)
	assert.Zero(t, count)

	batch := []json.RawMessage{
		json.RawMessage(`{"id":"evt-1"}`),
		json.RawMessage(`{"id":"evt-2"}`),
	}
	require.NoError(t, store.Append(ctx, "stream_google_calendar", batch))
	require.NoError(t, store.Append(ctx, "stream_google_calendar", batch[:1]))

	count, err = store.Count(ctx, "stream_google_calendar")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Tables are independent.
	count, err = store.Count(ctx, "stream_strava_activities")
	require.NoError(t, err)
	assert.Zero(t, count)

	rows := store.Rows("stream_google_calendar")
	require.Len(t, rows, 3)
	assert.JSONEq(t, `{"id":"evt-1"}`, string(rows[0]))
}
