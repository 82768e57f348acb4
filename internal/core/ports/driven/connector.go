package driven

import (
	"context"

	"github.com/ariata/ariata/internal/core/domain"
)

// SyncRequest carries everything a connector needs for one invocation.
type SyncRequest struct {
	// Mode is the effective sync mode. For incremental mode the cursor
	// is the stored checkpoint, re-read at execution time.
	Mode domain.SyncMode

	// Config is the stream's opaque configuration document.
	Config map[string]string

	// TargetTable is the sink table for fetched records.
	TargetTable string
}

// SyncResult is what a successful connector invocation yields.
type SyncResult struct {
	// Checkpoint is the new cursor. Empty means "unchanged"; the engine
	// never regresses a stored checkpoint.
	Checkpoint string

	// RecordsFetched counts items read from the upstream API.
	RecordsFetched int

	// RecordsWritten counts rows written to the record sink.
	RecordsWritten int
}

// Connector fetches records for exactly one (source type, stream) pair.
// Implementations must honor the capability contract:
//
//   - Cancellation is cooperative: check ctx at each bounded unit of
//     work (typically each page of a paginated fetch) and return
//     promptly. Cancellation latency equals the size of one unit.
//   - All-or-nothing per invocation: never emit writes that are not
//     reflected in the returned checkpoint.
//   - Checkpoint semantics are deterministic: re-invocation with the
//     same (mode, cursor) and no new upstream data yields the same or
//     a strictly advancing checkpoint, never a regression.
//   - Distinguish error classes by wrapping the domain sentinels
//     (ErrReauthRequired, ErrRateLimited, ErrTransient, ErrPermanent).
type Connector interface {
	// Type returns the connector's source type identifier.
	Type() string

	// Stream returns the stream name this connector serves.
	Stream() string

	// Sync performs one fetch in the requested mode.
	Sync(ctx context.Context, req SyncRequest) (*SyncResult, error)

	// Close releases resources.
	Close() error
}

// ConnectorBuilder creates a Connector bound to a source. The record
// store is the sink for fetched rows; creds may be nil for no-auth
// connectors.
type ConnectorBuilder func(source domain.Source, creds *domain.Credential, records RecordStore) (Connector, error)

// ConnectorFactory resolves connectors from a registration map keyed
// by (source type, stream name). Adding a source type means adding a
// registry entry, not editing a dispatch function.
type ConnectorFactory interface {
	// Create returns a Connector for the given source and stream.
	// Returns domain.ErrUnsupportedType if no builder is registered.
	Create(ctx context.Context, source domain.Source, streamName string) (Connector, error)

	// Register adds a builder for the given (source type, stream) pair.
	Register(sourceType, streamName string, builder ConnectorBuilder)
}
