package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector or processor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Admission errors. Surfaced synchronously by TriggerSync and
	// never retried automatically.

	// ErrUnknownStream indicates the source has no such stream.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrStreamDisabled indicates the stream exists but is disabled.
	ErrStreamDisabled = errors.New("stream disabled")

	// ErrSourcePaused indicates the owning source is not active.
	ErrSourcePaused = errors.New("source paused")

	// ErrSyncConflict indicates the stream already has an active sync.
	// Admission is rejected, not queued.
	ErrSyncConflict = errors.New("stream already has an active sync")

	// ErrUnsupportedMode indicates the caller requested a sync mode the
	// stream's capabilities do not declare.
	ErrUnsupportedMode = errors.New("unsupported sync mode")

	// Connector errors. Both retryable and terminal classes fail the
	// job today; the distinction is preserved for future retry policy.

	// ErrReauthRequired indicates the source's credential is invalid or
	// revoked and the user must reauthorize.
	ErrReauthRequired = errors.New("reauthorization required")

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a temporary upstream failure worth retrying.
	ErrTransient = errors.New("transient upstream error")

	// ErrPermanent indicates a non-retryable upstream failure.
	ErrPermanent = errors.New("permanent upstream error")

	// Cancellation errors.

	// ErrJobNotFound indicates no job exists with the given ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyDone indicates the job is already in a terminal
	// state; reported so callers can distinguish "you cancelled it"
	// from "it was already done".
	ErrJobAlreadyDone = errors.New("job already in terminal state")

	// ErrJobTimeout marks jobs failed by the execution deadline.
	ErrJobTimeout = errors.New("execution deadline exceeded")

	// ErrJobAbandoned marks jobs reaped after the liveness threshold.
	ErrJobAbandoned = errors.New("abandoned")

	// Ingestion errors.

	// ErrUnknownSourceStream indicates the pushed (source, stream) pair
	// is not a known combination; the whole batch is rejected.
	ErrUnknownSourceStream = errors.New("unknown source/stream combination")
)
