package domain

import "time"

// Source represents a configured instance of a connector type.
// Cloud sources are created by OAuth completion, device sources by
// device registration. Sources are soft-disabled via Active; deletion
// is an explicit destructive operation that cascades to streams,
// checkpoints and history.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type (e.g., "google", "ios", "strava").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// DeviceID identifies the device instance for push sources.
	// Empty for cloud sources.
	DeviceID string

	// Active indicates whether the source participates in syncs.
	// Paused sources keep their streams and history.
	Active bool

	// LastError holds the most recent sync failure, cleared on the
	// next successful sync.
	LastError string

	// CredentialsID references this source's stored credentials.
	// Empty for no-auth and device-token sources.
	CredentialsID string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// Stream is one sync-capable feed within a Source.
// A stream's name must be one the source's connector declares in the
// catalog; enabling an unknown stream is rejected.
type Stream struct {
	// SourceID links to the owning Source.
	SourceID string

	// Name is the stream name within the connector type (e.g., "calendar").
	Name string

	// Enabled indicates whether the stream may be synced.
	Enabled bool

	// Config contains stream-specific configuration, opaque to the engine.
	Config map[string]string

	// CronSchedule is an optional cron expression for scheduled syncs.
	CronSchedule string

	// TargetTable is the sink table records are written to.
	TargetTable string

	// LastSyncAt is when the last successful sync completed.
	LastSyncAt time.Time
}

// Checkpoint is the opaque cursor for one (source, stream) pair.
// An absent checkpoint means "full history, start of time".
type Checkpoint struct {
	// SourceID links to the Source being synced.
	SourceID string

	// StreamName is the stream within the source.
	StreamName string

	// Cursor is an opaque token whose format is connector-defined.
	Cursor string

	// UpdatedAt is when the checkpoint was last advanced.
	UpdatedAt time.Time
}
