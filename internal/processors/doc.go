// Package processors validates and stores pushed records, one processor
// per push-only stream. Processors are the per-record seam the
// ingestion router isolates failures at: a bad record is rejected,
// the rest of the batch continues.
package processors
