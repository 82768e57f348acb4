package driven

import (
	"context"
	"encoding/json"
)

// RecordStore is the sink typed records are written to. The engine and
// router never look inside records; per-source field mapping happens
// before rows reach this seam.
type RecordStore interface {
	// Append writes records to the given table in one batch.
	Append(ctx context.Context, table string, records []json.RawMessage) error

	// Count returns the number of rows in a table. Used for reporting.
	Count(ctx context.Context, table string) (int, error)
}
