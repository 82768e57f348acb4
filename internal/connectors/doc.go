// Package connectors provides implementations of the Connector interface
// for pull-capable streams. Each connector knows how to fetch records for
// exactly one (source type, stream) pair: Google Calendar events, Gmail
// messages, Strava activities, Notion pages.
//
// Connectors are registered with the Factory at startup; adding a source
// type means adding a registry entry.
package connectors
