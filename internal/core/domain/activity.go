package domain

import "time"

// ActivityStatus is the lifecycle state of a PipelineActivity.
type ActivityStatus string

// Activity states. An activity that never reaches a terminal state
// still leaves an audit trail with the attempted record count.
const (
	ActivityRunning   ActivityStatus = "running"
	ActivityCompleted ActivityStatus = "completed"
	ActivityFailed    ActivityStatus = "failed"
)

// PipelineActivity is the push-path counterpart to SyncJob: one record
// per ingestion batch. Activities are append-only and independent;
// batches from the same device may arrive concurrently.
type PipelineActivity struct {
	// ID is the correlation identifier returned to the caller.
	ID string

	// SourceType and StreamName identify the batch's destination.
	SourceType string
	StreamName string

	// DeviceID identifies the pushing device instance.
	DeviceID string

	// Status is the current lifecycle state.
	Status ActivityStatus

	// RecordCount is the number of records in the batch as received.
	RecordCount int

	// RecordsProcessed is the number of records accepted.
	RecordsProcessed int

	// Error holds failure text when Status is failed.
	Error string

	// CreatedAt is when the batch arrived, FinishedAt when processing
	// reached a terminal state.
	CreatedAt  time.Time
	FinishedAt time.Time
}
