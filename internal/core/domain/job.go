package domain

import "time"

// JobStatus is the lifecycle state of a SyncJob.
type JobStatus string

// Job lifecycle states. Pending and Running (and Cancelling) jobs hold
// the per-stream slot; Completed, Failed and Cancelled release it.
const (
	JobPending    JobStatus = "pending"
	JobRunning    JobStatus = "running"
	JobCancelling JobStatus = "cancelling"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// ActiveJobStatuses are the statuses that occupy the one-active-job
// slot for a (source, stream) pair.
func ActiveJobStatuses() []JobStatus {
	return []JobStatus{JobPending, JobRunning, JobCancelling}
}

// SyncModeType selects between incremental and full-refresh sync.
type SyncModeType string

const (
	// SyncIncremental resumes from a checkpoint cursor.
	SyncIncremental SyncModeType = "incremental"

	// SyncFullRefresh refetches everything from the start of time.
	SyncFullRefresh SyncModeType = "full_refresh"
)

// SyncMode is the effective mode a sync runs in. Cursor is only
// meaningful for incremental mode and may be empty on the first sync.
type SyncMode struct {
	Type   SyncModeType
	Cursor string
}

// Incremental returns an incremental sync mode with the given cursor.
func Incremental(cursor string) SyncMode {
	return SyncMode{Type: SyncIncremental, Cursor: cursor}
}

// FullRefresh returns a full-refresh sync mode.
func FullRefresh() SyncMode {
	return SyncMode{Type: SyncFullRefresh}
}

// SyncJob is one tracked attempt to sync a stream (pull path).
type SyncJob struct {
	// ID is the unique job identifier.
	ID string

	// SourceID and StreamName identify the stream being synced.
	SourceID   string
	StreamName string

	// Mode is the effective sync mode chosen at admission.
	Mode SyncMode

	// Status is the current lifecycle state.
	Status JobStatus

	// RequestedAt is when the job was admitted.
	RequestedAt time.Time

	// StartedAt is when execution began. Zero while Pending.
	StartedAt time.Time

	// FinishedAt is when the job reached a terminal state.
	FinishedAt time.Time

	// RecordsFetched counts items read from the upstream API.
	RecordsFetched int

	// RecordsWritten counts rows written to the sink.
	RecordsWritten int

	// Error holds the failure text for Failed jobs, verbatim.
	Error string
}

// Duration returns how long the job executed for, or zero if it never
// started or has not finished.
func (j *SyncJob) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// JobFilter narrows a ledger query. Zero values mean "any".
type JobFilter struct {
	// SourceID restricts results to one source.
	SourceID string

	// Statuses restricts results to the given statuses.
	Statuses []JobStatus

	// Limit bounds the number of results. Zero means the store default.
	Limit int
}
