// Package services contains the core application services: the sync
// job engine, the ingestion router, the connector catalog, the cron
// scheduler, and source/credential management. Services depend only on
// ports; adapters are wired in at startup.
package services
