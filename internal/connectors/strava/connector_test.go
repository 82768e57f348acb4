package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ariata/ariata/internal/adapters/driven/storage/memory"
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// newTestConnector points the client at a test server with the
// throttle effectively disabled.
func newTestConnector(t *testing.T, handler http.Handler) (*Connector, *memory.RecordStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	records := memory.NewRecordStore()
	conn, err := New(domain.Source{ID: "src-1", Type: SourceType},
		&domain.Credential{AccessToken: "token"}, records)
	require.NoError(t, err)

	c := conn.(*Connector)
	c.client.baseURL = server.URL
	c.client.limiter = rate.NewLimiter(rate.Inf, 1)
	return c, records
}

func TestNew_RequiresCredential(t *testing.T) {
	_, err := New(domain.Source{ID: "src-1"}, nil, memory.NewRecordStore())
	assert.ErrorIs(t, err, domain.ErrReauthRequired)

	_, err = New(domain.Source{ID: "src-1"}, &domain.Credential{}, memory.NewRecordStore())
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
}

func TestConnector_Sync_FullRefresh(t *testing.T) {
	conn, records := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("after"))

		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `[
				{"id": 1, "name": "Morning Run", "type": "Run", "start_date": "2026-08-01T06:00:00Z"},
				{"id": 2, "name": "Evening Ride", "type": "Ride", "start_date": "2026-08-02T18:00:00Z"}
			]`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))

	result, err := conn.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.FullRefresh(),
		TargetTable: "stream_strava_activities",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordsFetched)
	assert.Equal(t, 2, result.RecordsWritten)

	// Cursor is the newest start_date as epoch seconds
	assert.Equal(t, "1785693600", result.Checkpoint)

	rows := records.Rows("stream_strava_activities")
	require.Len(t, rows, 2)
	var first activity
	require.NoError(t, json.Unmarshal(rows[0], &first))
	assert.Equal(t, "Morning Run", first.Name)
}

func TestConnector_Sync_IncrementalPassesAfter(t *testing.T) {
	conn, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1785600000", r.URL.Query().Get("after"))
		fmt.Fprint(w, `[]`)
	}))

	result, err := conn.Sync(context.Background(), driven.SyncRequest{
		Mode:        domain.Incremental("1785600000"),
		TargetTable: "stream_strava_activities",
	})
	require.NoError(t, err)
	assert.Zero(t, result.RecordsFetched)

	// No new data keeps the cursor where it was
	assert.Equal(t, "1785600000", result.Checkpoint)
}

func TestConnector_Sync_BadCursor(t *testing.T) {
	conn, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	_, err := conn.Sync(context.Background(), driven.SyncRequest{
		Mode: domain.Incremental("not-a-timestamp"),
	})
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestConnector_Sync_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrReauthRequired},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server error", http.StatusBadGateway, domain.ErrTransient},
		{"bad request", http.StatusBadRequest, domain.ErrPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			_, err := conn.Sync(context.Background(), driven.SyncRequest{Mode: domain.FullRefresh()})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConnector_Sync_CancelledContext(t *testing.T) {
	conn, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.Sync(ctx, driven.SyncRequest{Mode: domain.FullRefresh()})
	assert.ErrorIs(t, err, context.Canceled)
}
