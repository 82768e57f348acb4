// Package notion syncs workspace pages via the Notion search API. The
// cursor is the last_edited_time high-water mark; pages edited at or
// before it are skipped on incremental syncs.
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// SourceType and StreamName identify this connector in the catalog.
const (
	SourceType = "notion"
	StreamName = "pages"
)

// pageSize is the search-results-per-page request size (Notion max).
const pageSize = 100

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches Notion pages into the record sink.
type Connector struct {
	source  domain.Source
	client  *notionapi.Client
	records driven.RecordStore
}

// New builds a notion connector for the given source. Notion uses
// integration API keys rather than OAuth tokens.
func New(source domain.Source, creds *domain.Credential, records driven.RecordStore) (driven.Connector, error) {
	if creds == nil || creds.APIKey == "" {
		return nil, fmt.Errorf("notion connector for %s: %w", source.ID, domain.ErrReauthRequired)
	}

	return &Connector{
		source:  source,
		client:  notionapi.NewClient(notionapi.Token(creds.APIKey)),
		records: records,
	}, nil
}

// Type returns the connector's source type identifier.
func (c *Connector) Type() string { return SourceType }

// Stream returns the stream name this connector serves.
func (c *Connector) Stream() string { return StreamName }

// Close releases resources.
func (c *Connector) Close() error { return nil }

// pageRecord is the row shape written to the sink.
type pageRecord struct {
	PageID         string `json:"page_id"`
	Title          string `json:"title"`
	URL            string `json:"url,omitempty"`
	Archived       bool   `json:"archived"`
	CreatedTime    string `json:"created_time"`
	LastEditedTime string `json:"last_edited_time"`
}

// Sync performs one fetch in the requested mode. Notion's search API
// has no "edited since" filter, so incremental syncs page newest-first
// and stop at the first page older than the cursor.
func (c *Connector) Sync(ctx context.Context, req driven.SyncRequest) (*driven.SyncResult, error) {
	var since time.Time
	if req.Mode.Type == domain.SyncIncremental && req.Mode.Cursor != "" {
		parsed, err := time.Parse(time.RFC3339, req.Mode.Cursor)
		if err != nil {
			return nil, fmt.Errorf("notion cursor %q: %w", req.Mode.Cursor, domain.ErrPermanent)
		}
		since = parsed
	}

	var rows []json.RawMessage
	fetched := 0
	newest := since
	var startCursor notionapi.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.client.Search.Do(ctx, &notionapi.SearchRequest{
			Filter:      notionapi.SearchFilter{Property: "object", Value: "page"},
			Sort:        &notionapi.SortObject{Direction: "descending", Timestamp: "last_edited_time"},
			PageSize:    pageSize,
			StartCursor: startCursor,
		})
		if err != nil {
			return nil, mapError(err)
		}

		done := false
		for _, result := range resp.Results {
			page, ok := result.(*notionapi.Page)
			if !ok {
				continue
			}
			fetched++

			// Results are newest-first; the first page at or before the
			// cursor ends the scan.
			if !since.IsZero() && !page.LastEditedTime.After(since) {
				done = true
				break
			}

			row, err := json.Marshal(toRecord(page))
			if err != nil {
				return nil, fmt.Errorf("encoding page %s: %w", page.ID, err)
			}
			rows = append(rows, row)

			if page.LastEditedTime.After(newest) {
				newest = page.LastEditedTime
			}
		}

		if done || !resp.HasMore {
			break
		}
		startCursor = notionapi.Cursor(resp.NextCursor)
	}

	if len(rows) > 0 {
		if err := c.records.Append(ctx, req.TargetTable, rows); err != nil {
			return nil, fmt.Errorf("writing notion pages: %w", err)
		}
	}

	checkpoint := ""
	if !newest.IsZero() {
		checkpoint = newest.UTC().Format(time.RFC3339)
	}
	return &driven.SyncResult{
		Checkpoint:     checkpoint,
		RecordsFetched: fetched,
		RecordsWritten: len(rows),
	}, nil
}

func toRecord(page *notionapi.Page) pageRecord {
	return pageRecord{
		PageID:         page.ID.String(),
		Title:          pageTitle(page),
		URL:            page.URL,
		Archived:       page.Archived,
		CreatedTime:    page.CreatedTime.UTC().Format(time.RFC3339),
		LastEditedTime: page.LastEditedTime.UTC().Format(time.RFC3339),
	}
}

// pageTitle extracts the plain-text title from page properties.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		title, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		text := ""
		for _, rt := range title.Title {
			text += rt.PlainText
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// mapError classifies a Notion API error into the domain error taxonomy.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}

	switch {
	case apiErr.Status == http.StatusUnauthorized:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrReauthRequired)
	case apiErr.Status == http.StatusTooManyRequests:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrRateLimited)
	case apiErr.Status >= 500:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrTransient)
	default:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrPermanent)
	}
}
