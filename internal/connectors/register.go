package connectors

import (
	"github.com/ariata/ariata/internal/connectors/google/calendar"
	"github.com/ariata/ariata/internal/connectors/google/gmail"
	"github.com/ariata/ariata/internal/connectors/notion"
	"github.com/ariata/ariata/internal/connectors/strava"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// NewDefaultFactory creates a factory with all built-in pull connectors
// registered. Push-only streams (ios, mac) have no connectors; their
// records arrive through the ingestion router.
func NewDefaultFactory(credentials driven.CredentialProvider, records driven.RecordStore) *Factory {
	f := NewFactory(credentials, records)
	f.Register(calendar.SourceType, calendar.StreamName, calendar.New)
	f.Register(gmail.SourceType, gmail.StreamName, gmail.New)
	f.Register(strava.SourceType, strava.StreamName, strava.New)
	f.Register(notion.SourceType, notion.StreamName, notion.New)
	return f
}
