// Package domain contains the core business entities and errors for
// the Ariata platform: sources, streams, checkpoints, sync jobs,
// pipeline activities and the connector catalog types.
//
// Domain types have no dependencies on adapters or external services.
package domain
