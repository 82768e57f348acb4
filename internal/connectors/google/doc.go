// Package google provides shared plumbing for the Google Workspace
// connectors: OAuth token sources, request throttling and mapping of
// API errors onto the domain error classes.
package google
