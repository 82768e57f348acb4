package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.SyncEngine = (*Engine)(nil)

// EngineConfig holds tunables for the sync engine.
type EngineConfig struct {
	// ExecutionDeadline bounds a single job's run time. Zero disables
	// the deadline. Jobs hitting the deadline are marked Failed with a
	// timeout reason; abandoned connector work cannot corrupt the
	// checkpoint because the checkpoint write only happens on the
	// direct success path.
	ExecutionDeadline time.Duration

	// LivenessThreshold is how long a non-terminal job may go without
	// finishing before the reaper marks it abandoned. The ledger row is
	// the logical per-stream lock, so reaping frees the slot after a
	// crashed process.
	LivenessThreshold time.Duration

	// ReapInterval is how often the reaper scans for stale jobs.
	ReapInterval time.Duration
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ExecutionDeadline: 0,
		LivenessThreshold: 30 * time.Minute,
		ReapInterval:      time.Minute,
	}
}

// Engine coordinates sync jobs for pull sources. Admission control,
// execution under cancellation, checkpoint advancement and result
// recording all go through here. Unrelated streams sync in parallel;
// the one-active-job-per-stream invariant lives in the job ledger's
// conditional insert, not in an in-memory lock.
type Engine struct {
	sourceStore driven.SourceStore
	jobStore    driven.JobStore
	checkpoints driven.CheckpointStore
	factory     driven.ConnectorFactory
	catalog     driving.Catalog
	config      EngineConfig

	// cancels maps job ID to that job's cancellation signal. Purely
	// advisory; job liveness is tracked in the ledger.
	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewEngine creates a sync engine.
func NewEngine(
	sourceStore driven.SourceStore,
	jobStore driven.JobStore,
	checkpoints driven.CheckpointStore,
	factory driven.ConnectorFactory,
	catalog driving.Catalog,
	config EngineConfig,
) *Engine {
	return &Engine{
		sourceStore: sourceStore,
		jobStore:    jobStore,
		checkpoints: checkpoints,
		factory:     factory,
		catalog:     catalog,
		config:      config,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// TriggerSync admits one sync job for a stream and starts it in the
// background. The call itself never blocks on network I/O.
func (e *Engine) TriggerSync(
	ctx context.Context,
	sourceID, streamName string,
	requested *domain.SyncMode,
) (*domain.SyncJob, error) {
	source, err := e.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if !source.Active {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrSourcePaused)
	}

	stream, err := e.sourceStore.GetStream(ctx, sourceID, streamName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", sourceID, streamName, domain.ErrUnknownStream)
		}
		return nil, fmt.Errorf("get stream: %w", err)
	}
	if !stream.Enabled {
		return nil, fmt.Errorf("%s/%s: %w", sourceID, streamName, domain.ErrStreamDisabled)
	}

	descriptor := e.catalog.Describe(source.Type)
	if descriptor == nil {
		return nil, fmt.Errorf("source type %s: %w", source.Type, domain.ErrUnsupportedType)
	}
	capabilities := descriptor.Stream(streamName)
	if capabilities == nil {
		return nil, fmt.Errorf("%s/%s: %w", source.Type, streamName, domain.ErrUnknownStream)
	}

	mode, err := effectiveMode(capabilities, requested)
	if err != nil {
		return nil, err
	}

	job := domain.SyncJob{
		ID:          uuid.NewString(),
		SourceID:    sourceID,
		StreamName:  streamName,
		Mode:        mode,
		Status:      domain.JobPending,
		RequestedAt: time.Now().UTC(),
	}

	// Single conditional insert: this is the admission check and the
	// slot acquisition in one atomic step.
	if err := e.jobStore.InsertIfAbsentActive(ctx, job); err != nil {
		return nil, err
	}

	logger.Info("Admitted sync job %s for %s/%s (%s)", job.ID, sourceID, streamName, mode.Type)

	e.wg.Add(1)
	go e.execute(job, *source, *stream)

	return &job, nil
}

// effectiveMode resolves the mode a sync will run in. Caller-specified
// modes win when the stream's capabilities allow them; otherwise the
// engine defaults to incremental when supported, else full refresh.
func effectiveMode(capabilities *domain.StreamDescriptor, requested *domain.SyncMode) (domain.SyncMode, error) {
	if capabilities.PushOnly {
		return domain.SyncMode{}, fmt.Errorf("stream is push-only: %w", domain.ErrUnsupportedMode)
	}
	if requested != nil {
		if !capabilities.SupportsMode(requested.Type) {
			return domain.SyncMode{}, fmt.Errorf("%s: %w", requested.Type, domain.ErrUnsupportedMode)
		}
		return *requested, nil
	}
	if capabilities.SupportsIncremental {
		// Cursor is re-read from the checkpoint store at execution
		// time, not admission time, to avoid staleness.
		return domain.Incremental(""), nil
	}
	if capabilities.SupportsFullRefresh {
		return domain.FullRefresh(), nil
	}
	return domain.SyncMode{}, domain.ErrUnsupportedMode
}

// execute drives one admitted job to a terminal state. Runs detached
// from the triggering request's context; cancellation comes through
// the per-job cancel signal or the execution deadline.
func (e *Engine) execute(job domain.SyncJob, source domain.Source, stream domain.Stream) {
	defer e.wg.Done()

	var ctx context.Context
	var cancel context.CancelFunc
	if e.config.ExecutionDeadline > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), e.config.ExecutionDeadline)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	e.registerCancel(job.ID, cancel)
	defer e.unregisterCancel(job.ID)
	defer cancel()

	started := time.Now().UTC()
	err := e.jobStore.UpdateStatus(ctx, job.ID, domain.JobRunning, driven.JobUpdate{StartedAt: &started})
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyDone) {
			// Cancelled while still Pending; never enters Running.
			return
		}
		log.Printf("engine: failed to mark job %s running: %v", job.ID, err)
		return
	}

	result, runErr := e.runConnector(ctx, job, source, stream)
	finished := time.Now().UTC()

	// Finalisation writes must survive the job context being cancelled.
	finalCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		e.finishFailed(finalCtx, ctx, job, source, finished, runErr)
		return
	}
	if ctx.Err() != nil {
		// Connector returned success after the cancel signal; treat as
		// cancelled and discard, the checkpoint stays untouched.
		e.finishCancelled(finalCtx, job, finished)
		return
	}

	// Success path: the only place a checkpoint is ever written.
	if result.Checkpoint != "" {
		cp := domain.Checkpoint{
			SourceID:   job.SourceID,
			StreamName: job.StreamName,
			Cursor:     result.Checkpoint,
			UpdatedAt:  finished,
		}
		if err := e.checkpoints.Set(finalCtx, cp); err != nil {
			e.finishFailed(finalCtx, ctx, job, source, finished, fmt.Errorf("save checkpoint: %w", err))
			return
		}
	}

	if err := e.sourceStore.TouchStreamSync(finalCtx, job.SourceID, job.StreamName); err != nil {
		log.Printf("engine: failed to touch stream %s/%s: %v", job.SourceID, job.StreamName, err)
	}
	if err := e.sourceStore.SetLastError(finalCtx, job.SourceID, ""); err != nil {
		log.Printf("engine: failed to clear source error for %s: %v", job.SourceID, err)
	}

	update := driven.JobUpdate{
		FinishedAt:     &finished,
		RecordsFetched: &result.RecordsFetched,
		RecordsWritten: &result.RecordsWritten,
	}
	if err := e.jobStore.UpdateStatus(finalCtx, job.ID, domain.JobCompleted, update); err != nil {
		log.Printf("engine: failed to complete job %s: %v", job.ID, err)
		return
	}

	logger.Info("Sync job %s completed: %d fetched, %d written", job.ID, result.RecordsFetched, result.RecordsWritten)
}

// runConnector resolves the checkpoint and connector, then performs
// the fetch. The connector observes ctx at each bounded unit of work.
func (e *Engine) runConnector(
	ctx context.Context,
	job domain.SyncJob,
	source domain.Source,
	stream domain.Stream,
) (*driven.SyncResult, error) {
	mode := job.Mode
	if mode.Type == domain.SyncIncremental && mode.Cursor == "" {
		cp, err := e.checkpoints.Get(ctx, job.SourceID, job.StreamName)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get checkpoint: %w", err)
		}
		if cp != nil {
			mode.Cursor = cp.Cursor
		}
	}

	connector, err := e.factory.Create(ctx, source, stream.Name)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	result, err := connector.Sync(ctx, driven.SyncRequest{
		Mode:        mode,
		Config:      stream.Config,
		TargetTable: stream.TargetTable,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finishFailed records a Failed (or Cancelled) terminal state. A failed
// sync never advances the checkpoint, so it is safely retryable from
// the last good cursor.
func (e *Engine) finishFailed(
	finalCtx, jobCtx context.Context,
	job domain.SyncJob,
	source domain.Source,
	finished time.Time,
	runErr error,
) {
	if errors.Is(runErr, context.Canceled) || errors.Is(jobCtx.Err(), context.Canceled) {
		e.finishCancelled(finalCtx, job, finished)
		return
	}

	errText := runErr.Error()
	if errors.Is(runErr, context.DeadlineExceeded) || errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		errText = domain.ErrJobTimeout.Error()
	}

	update := driven.JobUpdate{FinishedAt: &finished, Error: &errText}
	if err := e.jobStore.UpdateStatus(finalCtx, job.ID, domain.JobFailed, update); err != nil {
		log.Printf("engine: failed to mark job %s failed: %v", job.ID, err)
	}
	if err := e.sourceStore.SetLastError(finalCtx, source.ID, errText); err != nil {
		log.Printf("engine: failed to record source error for %s: %v", source.ID, err)
	}

	logger.Warn("Sync job %s failed: %s", job.ID, errText)
}

// finishCancelled records a Cancelled terminal state. Partially fetched
// but unwritten data is discarded; the checkpoint is left untouched.
func (e *Engine) finishCancelled(finalCtx context.Context, job domain.SyncJob, finished time.Time) {
	update := driven.JobUpdate{FinishedAt: &finished}
	if err := e.jobStore.UpdateStatus(finalCtx, job.ID, domain.JobCancelled, update); err != nil {
		log.Printf("engine: failed to mark job %s cancelled: %v", job.ID, err)
	}
	logger.Info("Sync job %s cancelled", job.ID)
}

// Cancel requests cooperative cancellation of a job. The connector is
// expected to observe the signal at its next suspension point.
func (e *Engine) Cancel(ctx context.Context, jobID string) error {
	job, err := e.jobStore.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobAlreadyDone
	}

	if job.Status == domain.JobPending {
		// Never started: transition straight to Cancelled. The ledger
		// only refuses writes to already-terminal jobs, so this write
		// lands even if the background goroutine has moved the job to
		// Running in the meantime; the signal below then stops the
		// connector, and the post-run context check discards its
		// result. The fall-through handles the narrow case where the
		// job finished entirely before our write.
		finished := time.Now().UTC()
		err := e.jobStore.UpdateStatus(ctx, jobID, domain.JobCancelled, driven.JobUpdate{FinishedAt: &finished})
		if err == nil {
			e.signalCancel(jobID)
			return nil
		}
		if !errors.Is(err, domain.ErrJobAlreadyDone) {
			return err
		}
	}

	if err := e.jobStore.UpdateStatus(ctx, jobID, domain.JobCancelling, driven.JobUpdate{}); err != nil {
		if errors.Is(err, domain.ErrJobAlreadyDone) {
			return domain.ErrJobAlreadyDone
		}
		return err
	}
	e.signalCancel(jobID)
	return nil
}

// Job retrieves a job by ID.
func (e *Engine) Job(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	return e.jobStore.Get(ctx, jobID)
}

// QueryJobs returns jobs matching the filter, most recent first.
func (e *Engine) QueryJobs(ctx context.Context, filter domain.JobFilter) ([]domain.SyncJob, error) {
	return e.jobStore.Query(ctx, filter)
}

// Start launches the abandoned-job reaper. Safe to call once; returns
// immediately.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	e.wg.Add(1)
	go e.reapLoop()
}

// Stop signals the reaper to exit and waits for it and all in-flight
// jobs to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()
}

// reapLoop periodically fails non-terminal jobs older than the
// liveness threshold so a crashed process cannot wedge a stream.
func (e *Engine) reapLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.reapOnce(context.Background())
		}
	}
}

// reapOnce runs one reaper pass.
func (e *Engine) reapOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-e.config.LivenessThreshold)
	reaped, err := e.jobStore.ReapStale(ctx, cutoff, domain.ErrJobAbandoned.Error())
	if err != nil {
		log.Printf("engine: reaper pass failed: %v", err)
		return
	}
	for _, id := range reaped {
		e.signalCancel(id)
		logger.Warn("Reaped abandoned job %s", id)
	}
}

// registerCancel stores a job's cancel function.
func (e *Engine) registerCancel(jobID string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels[jobID] = cancel
}

// unregisterCancel removes a job's cancel function.
func (e *Engine) unregisterCancel(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cancels, jobID)
}

// signalCancel fires a job's cancel function if it is still running in
// this process. Jobs owned by a crashed process have no local signal;
// the reaper handles those.
func (e *Engine) signalCancel(jobID string) {
	e.mu.Lock()
	cancel, ok := e.cancels[jobID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}
