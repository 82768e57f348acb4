package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/ariata/ariata/internal/adapters/driven/storage/memory"
	"github.com/ariata/ariata/internal/connectors/google"
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// newTestConnector points the connector at a stub Calendar API.
func newTestConnector(t *testing.T, handler http.Handler) (*Connector, *memory.RecordStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	records := memory.NewRecordStore()
	c := &Connector{
		source:  domain.Source{ID: "src-1", Type: SourceType},
		creds:   &domain.Credential{SourceID: "src-1", AccessToken: "token"},
		records: records,
		limiter: google.NewLimiter(),
	}
	c.newService = func(ctx context.Context) (*gcal.Service, error) {
		return gcal.NewService(ctx,
			option.WithoutAuthentication(),
			option.WithEndpoint(server.URL))
	}
	return c, records
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(domain.Source{ID: "src-1"}, nil, memory.NewRecordStore())
	assert.ErrorIs(t, err, domain.ErrReauthRequired)

	_, err = New(domain.Source{ID: "src-1"}, &domain.Credential{}, memory.NewRecordStore())
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
}

func TestConnector_Sync_FullFetchPaginates(t *testing.T) {
	c, records := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			assert.Empty(t, r.URL.Query().Get("syncToken"))
			fmt.Fprint(w, `{
				"items": [
					{"id": "evt-1", "summary": "Standup", "status": "confirmed",
					 "start": {"dateTime": "2026-08-31T09:00:00Z"},
					 "end": {"dateTime": "2026-08-31T09:15:00Z"}},
					{"id": "evt-2", "summary": "All day", "status": "confirmed",
					 "start": {"date": "2026-09-01"}, "end": {"date": "2026-09-02"}}
				],
				"nextPageToken": "page-2"
			}`)
		case "page-2":
			fmt.Fprint(w, `{
				"items": [{"id": "evt-3", "summary": "Review", "status": "confirmed"}],
				"nextSyncToken": "sync-1"
			}`)
		default:
			http.Error(w, "unexpected page token", http.StatusBadRequest)
		}
	}))

	result, err := c.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.FullRefresh(),
		TargetTable: "stream_google_calendar",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.RecordsFetched)
	assert.Equal(t, 3, result.RecordsWritten)

	cursor, err := DecodeCursor(result.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, "sync-1", cursor.GetSyncToken(DefaultCalendarID))

	rows := records.Rows("stream_google_calendar")
	require.Len(t, rows, 3)
	assert.Contains(t, string(rows[0]), `"event_id":"evt-1"`)
	assert.Contains(t, string(rows[1]), `"start_time":"2026-09-01"`)
}

func TestConnector_Sync_IncrementalUsesSyncToken(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sync-1", r.URL.Query().Get("syncToken"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"items": [{"id": "evt-4", "summary": "Changed", "status": "cancelled"}],
			"nextSyncToken": "sync-2"
		}`)
	}))

	cursor := NewCursor()
	cursor.SetSyncToken(DefaultCalendarID, "sync-1")

	result, err := c.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.Incremental(cursor.Encode()),
		TargetTable: "stream_google_calendar",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsFetched)

	next, err := DecodeCursor(result.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, "sync-2", next.GetSyncToken(DefaultCalendarID))
}

func TestConnector_Sync_ExpiredTokenFallsBackToFullFetch(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("syncToken") != "" {
			http.Error(w, `{"error": {"code": 410, "message": "Sync token is no longer valid"}}`, http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"items": [{"id": "evt-1", "summary": "Standup", "status": "confirmed"}],
			"nextSyncToken": "sync-fresh"
		}`)
	}))

	cursor := NewCursor()
	cursor.SetSyncToken(DefaultCalendarID, "sync-stale")

	result, err := c.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.Incremental(cursor.Encode()),
		TargetTable: "stream_google_calendar",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsFetched)

	next, err := DecodeCursor(result.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, "sync-fresh", next.GetSyncToken(DefaultCalendarID))
}

func TestConnector_Sync_UnauthorizedMapsToReauth(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 401, "message": "Invalid Credentials"}}`, http.StatusUnauthorized)
	}))

	_, err := c.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.FullRefresh(),
		TargetTable: "stream_google_calendar",
	})
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
}

func TestConnector_Sync_UndecodableCursorResyncs(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Full fetch: no sync token sent.
		assert.Empty(t, r.URL.Query().Get("syncToken"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": [], "nextSyncToken": "sync-1"}`)
	}))

	result, err := c.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.Incremental("%%%not-a-cursor%%%"),
		TargetTable: "stream_google_calendar",
	})
	require.NoError(t, err)
	assert.Zero(t, result.RecordsFetched)
}
