package services

import (
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driving"
)

// Ensure Catalog implements the interface.
var _ driving.Catalog = (*Catalog)(nil)

// Catalog is the static registry of known source types. It backs
// admission capability checks and catalog browsing. Pure lookup table,
// no state.
type Catalog struct {
	descriptors map[string]domain.ConnectorDescriptor
}

// NewCatalog creates a catalog with the built-in source types.
func NewCatalog() *Catalog {
	c := &Catalog{descriptors: make(map[string]domain.ConnectorDescriptor)}
	c.registerBuiltinSources()
	return c
}

func (c *Catalog) registerBuiltinSources() {
	c.registerGoogle()
	c.registerStrava()
	c.registerNotion()
	c.registerIOS()
	c.registerMac()
}

func (c *Catalog) registerGoogle() {
	c.descriptors["google"] = domain.ConnectorDescriptor{
		Type:        "google",
		DisplayName: "Google",
		Description: "Google services including Calendar and Gmail",
		Auth:        domain.AuthOAuth2,
		Streams: []domain.StreamDescriptor{
			{
				Name:                "calendar",
				DisplayName:         "Google Calendar",
				Description:         "Calendar events and appointments",
				SupportsIncremental: true,
				SupportsFullRefresh: true,
			},
			{
				Name:                "gmail",
				DisplayName:         "Gmail",
				Description:         "Email messages and threads",
				SupportsIncremental: true,
				SupportsFullRefresh: true,
			},
		},
	}
}

func (c *Catalog) registerStrava() {
	c.descriptors["strava"] = domain.ConnectorDescriptor{
		Type:        "strava",
		DisplayName: "Strava",
		Description: "Workouts and activity recordings",
		Auth:        domain.AuthOAuth2,
		Streams: []domain.StreamDescriptor{
			{
				Name:                "activities",
				DisplayName:         "Activities",
				Description:         "Runs, rides and other recorded activities",
				SupportsIncremental: true,
				SupportsFullRefresh: true,
			},
		},
	}
}

func (c *Catalog) registerNotion() {
	c.descriptors["notion"] = domain.ConnectorDescriptor{
		Type:        "notion",
		DisplayName: "Notion",
		Description: "Pages and databases from a Notion workspace",
		Auth:        domain.AuthAPIKey,
		Streams: []domain.StreamDescriptor{
			{
				Name:                "pages",
				DisplayName:         "Pages",
				Description:         "Workspace pages with edit history",
				SupportsIncremental: true,
				SupportsFullRefresh: true,
			},
		},
	}
}

func (c *Catalog) registerIOS() {
	c.descriptors["ios"] = domain.ConnectorDescriptor{
		Type:        "ios",
		DisplayName: "iPhone",
		Description: "Location, health and audio data pushed from an iPhone",
		Auth:        domain.AuthDeviceToken,
		Streams: []domain.StreamDescriptor{
			{
				Name:        "healthkit",
				DisplayName: "HealthKit",
				Description: "Health metrics including heart rate, steps, sleep",
				PushOnly:    true,
			},
			{
				Name:        "location",
				DisplayName: "Core Location",
				Description: "GPS, altitude, and speed data",
				PushOnly:    true,
			},
			{
				Name:        "mic",
				DisplayName: "Microphone",
				Description: "Audio capture and transcription",
				PushOnly:    true,
			},
		},
	}
}

func (c *Catalog) registerMac() {
	c.descriptors["mac"] = domain.ConnectorDescriptor{
		Type:        "mac",
		DisplayName: "Mac",
		Description: "App usage and messages pushed from a Mac agent",
		Auth:        domain.AuthDeviceToken,
		Streams: []domain.StreamDescriptor{
			{
				Name:        "apps",
				DisplayName: "Applications",
				Description: "Foreground application activations",
				PushOnly:    true,
			},
			{
				Name:        "imessage",
				DisplayName: "iMessage",
				Description: "Message history from the local Messages database",
				PushOnly:    true,
			},
		},
	}
}

// Describe returns the descriptor for a source type, or nil if unknown.
func (c *Catalog) Describe(sourceType string) *domain.ConnectorDescriptor {
	d, ok := c.descriptors[sourceType]
	if !ok {
		return nil
	}
	return &d
}

// List returns all known connector descriptors.
func (c *Catalog) List() []domain.ConnectorDescriptor {
	result := make([]domain.ConnectorDescriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		result = append(result, d)
	}
	return result
}
