package domain

// AuthMode describes how a connector type authenticates.
type AuthMode string

// Supported auth modes.
const (
	AuthOAuth2      AuthMode = "oauth2"
	AuthDeviceToken AuthMode = "device_token"
	AuthAPIKey      AuthMode = "api_key"
	AuthNone        AuthMode = "none"
)

// StreamDescriptor declares one stream a connector type offers and
// which sync modes it supports.
type StreamDescriptor struct {
	// Name is the stream identifier (e.g., "calendar").
	Name string

	// DisplayName and Description are for catalog browsing.
	DisplayName string
	Description string

	// SupportsIncremental indicates the stream can resume from a checkpoint.
	SupportsIncremental bool

	// SupportsFullRefresh indicates the stream can refetch everything.
	SupportsFullRefresh bool

	// PushOnly marks streams fed exclusively through the ingestion
	// path; they cannot be pull-synced.
	PushOnly bool
}

// ConnectorDescriptor is the static catalog entry for one source type.
type ConnectorDescriptor struct {
	// Type is the source type identifier (e.g., "google", "ios").
	Type string

	// DisplayName and Description are for catalog browsing.
	DisplayName string
	Description string

	// Auth is how instances of this type authenticate.
	Auth AuthMode

	// Streams enumerates the feeds this connector type offers.
	Streams []StreamDescriptor
}

// Stream returns the descriptor for a named stream, or nil if the
// connector type does not declare it.
func (d *ConnectorDescriptor) Stream(name string) *StreamDescriptor {
	for i := range d.Streams {
		if d.Streams[i].Name == name {
			return &d.Streams[i]
		}
	}
	return nil
}

// SupportsMode reports whether the stream supports the given sync mode type.
func (s *StreamDescriptor) SupportsMode(mode SyncModeType) bool {
	switch mode {
	case SyncIncremental:
		return s.SupportsIncremental
	case SyncFullRefresh:
		return s.SupportsFullRefresh
	default:
		return false
	}
}
