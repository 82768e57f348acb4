package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ariata/ariata/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ariata/data/ariata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ariata", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ariata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// CheckpointStore returns a CheckpointStore interface backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// ActivityStore returns an ActivityStore interface backed by this store.
func (s *Store) ActivityStore() driven.ActivityStore {
	return &activityStore{store: s}
}

// CredentialsStore returns a CredentialsStore interface backed by this store.
func (s *Store) CredentialsStore() driven.CredentialsStore {
	return &credentialsStore{store: s}
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, name, device_id, active, last_error, credentials_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			device_id = excluded.device_id,
			active = excluded.active,
			last_error = excluded.last_error,
			credentials_id = excluded.credentials_id,
			updated_at = excluded.updated_at
	`, source.ID, source.Type, source.Name, source.DeviceID, source.Active,
		source.LastError, source.CredentialsID, source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, type, name, device_id, active, last_error, credentials_id, created_at, updated_at
		FROM sources WHERE id = ?
	`, id)

	source, err := scanSource(row)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// Delete removes a source. Streams cascade via the foreign key.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all configured sources ordered by creation time.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, type, name, device_id, active, last_error, credentials_id, created_at, updated_at
		FROM sources ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSourceRows(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// SetLastError records or clears the source's last sync error.
func (s *sourceStore) SetLastError(ctx context.Context, id, errText string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE sources SET last_error = ?, updated_at = ? WHERE id = ?
	`, errText, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("setting last error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveStream stores or updates a stream within a source.
func (s *sourceStore) SaveStream(ctx context.Context, stream domain.Stream) error {
	configJSON, err := json.Marshal(stream.Config)
	if err != nil {
		return fmt.Errorf("marshalling stream config: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO streams (source_id, name, enabled, config, cron_schedule, target_table, last_sync_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, name) DO UPDATE SET
			enabled = excluded.enabled,
			config = excluded.config,
			cron_schedule = excluded.cron_schedule,
			target_table = excluded.target_table,
			last_sync_at = excluded.last_sync_at
	`, stream.SourceID, stream.Name, stream.Enabled, string(configJSON),
		stream.CronSchedule, stream.TargetTable, nullTime(stream.LastSyncAt))

	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("saving stream: %w", err)
	}
	return nil
}

// GetStream retrieves one stream.
func (s *sourceStore) GetStream(ctx context.Context, sourceID, name string) (*domain.Stream, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, name, enabled, config, cron_schedule, target_table, last_sync_at
		FROM streams WHERE source_id = ? AND name = ?
	`, sourceID, name)

	var stream domain.Stream
	var configJSON string
	var lastSyncAt sql.NullTime
	if err := row.Scan(&stream.SourceID, &stream.Name, &stream.Enabled, &configJSON,
		&stream.CronSchedule, &stream.TargetTable, &lastSyncAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning stream: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &stream.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling stream config: %w", err)
	}
	if lastSyncAt.Valid {
		stream.LastSyncAt = lastSyncAt.Time
	}

	return &stream, nil
}

// ListStreams returns all streams for a source ordered by name.
func (s *sourceStore) ListStreams(ctx context.Context, sourceID string) ([]domain.Stream, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, name, enabled, config, cron_schedule, target_table, last_sync_at
		FROM streams WHERE source_id = ? ORDER BY name
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying streams: %w", err)
	}
	defer rows.Close()

	var streams []domain.Stream //nolint:prealloc // size unknown from query
	for rows.Next() {
		var stream domain.Stream
		var configJSON string
		var lastSyncAt sql.NullTime
		if err := rows.Scan(&stream.SourceID, &stream.Name, &stream.Enabled, &configJSON,
			&stream.CronSchedule, &stream.TargetTable, &lastSyncAt); err != nil {
			return nil, fmt.Errorf("scanning stream: %w", err)
		}
		if err := json.Unmarshal([]byte(configJSON), &stream.Config); err != nil {
			return nil, fmt.Errorf("unmarshaling stream config: %w", err)
		}
		if lastSyncAt.Valid {
			stream.LastSyncAt = lastSyncAt.Time
		}
		streams = append(streams, stream)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating streams: %w", err)
	}

	return streams, nil
}

// TouchStreamSync updates the stream's last-sync timestamp.
func (s *sourceStore) TouchStreamSync(ctx context.Context, sourceID, name string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE streams SET last_sync_at = ? WHERE source_id = ? AND name = ?
	`, time.Now().UTC(), sourceID, name)
	if err != nil {
		return fmt.Errorf("touching stream sync: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// activeStatusesSQL is the status set occupying the per-stream slot,
// matching the partial unique index predicate.
const activeStatusesSQL = "('pending', 'running', 'cancelling')"

// InsertIfAbsentActive inserts the job, relying on the partial unique
// index over non-terminal statuses to reject a second active job for
// the same (source, stream) pair.
func (s *jobStore) InsertIfAbsentActive(ctx context.Context, job domain.SyncJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_jobs
			(id, source_id, stream_name, mode_type, mode_cursor, status,
			 requested_at, started_at, finished_at, records_fetched, records_written, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.SourceID, job.StreamName, string(job.Mode.Type), job.Mode.Cursor,
		string(job.Status), job.RequestedAt, nullTime(job.StartedAt), nullTime(job.FinishedAt),
		job.RecordsFetched, job.RecordsWritten, job.Error)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrSyncConflict
		}
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, stream_name, mode_type, mode_cursor, status,
		       requested_at, started_at, finished_at, records_fetched, records_written, error
		FROM sync_jobs WHERE id = ?
	`, jobID)

	var job domain.SyncJob
	var modeType, status string
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(&job.ID, &job.SourceID, &job.StreamName, &modeType, &job.Mode.Cursor,
		&status, &job.RequestedAt, &startedAt, &finishedAt,
		&job.RecordsFetched, &job.RecordsWritten, &job.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Mode.Type = domain.SyncModeType(modeType)
	job.Status = domain.JobStatus(status)
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = finishedAt.Time
	}

	return &job, nil
}

// UpdateStatus transitions a job. The WHERE clause restricts updates to
// non-terminal rows so a terminal job can never be resurrected, even
// under concurrent finalization.
func (s *jobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, update driven.JobUpdate) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE sync_jobs SET
			status = ?,
			started_at = COALESCE(?, started_at),
			finished_at = COALESCE(?, finished_at),
			records_fetched = COALESCE(?, records_fetched),
			records_written = COALESCE(?, records_written),
			error = COALESCE(?, error)
		WHERE id = ? AND status IN `+activeStatusesSQL,
		string(status), update.StartedAt, update.FinishedAt,
		update.RecordsFetched, update.RecordsWritten, update.Error, jobID)
	if err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		// Distinguish "already terminal" from "no such job".
		var exists int
		err := s.store.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sync_jobs WHERE id = ?", jobID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking job existence: %w", err)
		}
		if exists == 0 {
			return domain.ErrJobNotFound
		}
		return domain.ErrJobAlreadyDone
	}
	return nil
}

// Query returns jobs matching the filter, most recent first.
func (s *jobStore) Query(ctx context.Context, filter domain.JobFilter) ([]domain.SyncJob, error) {
	query := `
		SELECT id, source_id, stream_name, mode_type, mode_cursor, status,
		       requested_at, started_at, finished_at, records_fetched, records_written, error
		FROM sync_jobs
	`
	var conditions []string
	var args []any

	if filter.SourceID != "" {
		conditions = append(conditions, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY requested_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SyncJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		var job domain.SyncJob
		var modeType, status string
		var startedAt, finishedAt sql.NullTime
		if err := rows.Scan(&job.ID, &job.SourceID, &job.StreamName, &modeType, &job.Mode.Cursor,
			&status, &job.RequestedAt, &startedAt, &finishedAt,
			&job.RecordsFetched, &job.RecordsWritten, &job.Error); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		job.Mode.Type = domain.SyncModeType(modeType)
		job.Status = domain.JobStatus(status)
		if startedAt.Valid {
			job.StartedAt = startedAt.Time
		}
		if finishedAt.Valid {
			job.FinishedAt = finishedAt.Time
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}

// ReapStale fails non-terminal jobs last touched before the cutoff and
// returns their IDs. Select and update run in one transaction so the
// returned set matches the rows actually reaped.
func (s *jobStore) ReapStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM sync_jobs
		WHERE status IN `+activeStatusesSQL+`
		AND COALESCE(started_at, requested_at) <= ?
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stale jobs: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning stale job: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating stale jobs: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			UPDATE sync_jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?
		`, string(domain.JobFailed), reason, now, id); err != nil {
			return nil, fmt.Errorf("reaping job %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reap: %w", err)
	}
	return ids, nil
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Get retrieves the checkpoint for a stream.
func (s *checkpointStore) Get(ctx context.Context, sourceID, streamName string) (*domain.Checkpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, stream_name, cursor, updated_at
		FROM checkpoints WHERE source_id = ? AND stream_name = ?
	`, sourceID, streamName)

	var cp domain.Checkpoint
	if err := row.Scan(&cp.SourceID, &cp.StreamName, &cp.Cursor, &cp.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}

	return &cp, nil
}

// Set stores or replaces the checkpoint for a stream.
func (s *checkpointStore) Set(ctx context.Context, cp domain.Checkpoint) error {
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (source_id, stream_name, cursor, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, stream_name) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, cp.SourceID, cp.StreamName, cp.Cursor, cp.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for a stream.
func (s *checkpointStore) Delete(ctx context.Context, sourceID, streamName string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE source_id = ? AND stream_name = ?", sourceID, streamName)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// ==================== Activity Store ====================

// activityStore implements driven.ActivityStore.
type activityStore struct {
	store *Store
}

var _ driven.ActivityStore = (*activityStore)(nil)

// Insert records a new activity.
func (s *activityStore) Insert(ctx context.Context, activity domain.PipelineActivity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pipeline_activities
			(id, source_type, stream_name, device_id, status, record_count,
			 records_processed, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, activity.ID, activity.SourceType, activity.StreamName, activity.DeviceID,
		string(activity.Status), activity.RecordCount, activity.RecordsProcessed,
		activity.Error, activity.CreatedAt, nullTime(activity.FinishedAt))

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// Finalize sets the terminal status and processed count.
func (s *activityStore) Finalize(ctx context.Context, activityID string, status domain.ActivityStatus, processed int, errText string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE pipeline_activities
		SET status = ?, records_processed = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(status), processed, errText, time.Now().UTC(), activityID)
	if err != nil {
		return fmt.Errorf("finalizing activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves an activity by ID.
func (s *activityStore) Get(ctx context.Context, activityID string) (*domain.PipelineActivity, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_type, stream_name, device_id, status, record_count,
		       records_processed, error, created_at, finished_at
		FROM pipeline_activities WHERE id = ?
	`, activityID)

	var activity domain.PipelineActivity
	var status string
	var finishedAt sql.NullTime
	if err := row.Scan(&activity.ID, &activity.SourceType, &activity.StreamName,
		&activity.DeviceID, &status, &activity.RecordCount, &activity.RecordsProcessed,
		&activity.Error, &activity.CreatedAt, &finishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning activity: %w", err)
	}

	activity.Status = domain.ActivityStatus(status)
	if finishedAt.Valid {
		activity.FinishedAt = finishedAt.Time
	}

	return &activity, nil
}

// List returns activities for a (source type, stream), most recent first.
func (s *activityStore) List(ctx context.Context, sourceType, streamName string, limit int) ([]domain.PipelineActivity, error) {
	query := `
		SELECT id, source_type, stream_name, device_id, status, record_count,
		       records_processed, error, created_at, finished_at
		FROM pipeline_activities
	`
	var conditions []string
	var args []any

	if sourceType != "" {
		conditions = append(conditions, "source_type = ?")
		args = append(args, sourceType)
	}
	if streamName != "" {
		conditions = append(conditions, "stream_name = ?")
		args = append(args, streamName)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.PipelineActivity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var activity domain.PipelineActivity
		var status string
		var finishedAt sql.NullTime
		if err := rows.Scan(&activity.ID, &activity.SourceType, &activity.StreamName,
			&activity.DeviceID, &status, &activity.RecordCount, &activity.RecordsProcessed,
			&activity.Error, &activity.CreatedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activity.Status = domain.ActivityStatus(status)
		if finishedAt.Valid {
			activity.FinishedAt = finishedAt.Time
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

// ==================== Credentials Store ====================

// credentialsStore implements driven.CredentialsStore.
type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

// Save stores or updates a source's credential.
func (s *credentialsStore) Save(ctx context.Context, cred domain.Credential) error {
	if cred.SourceID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO credentials (source_id, access_token, refresh_token, expiry, api_key, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			api_key = excluded.api_key,
			updated_at = excluded.updated_at
	`, cred.SourceID, cred.AccessToken, cred.RefreshToken, nullTime(cred.Expiry),
		cred.APIKey, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Get retrieves a source's credential.
func (s *credentialsStore) Get(ctx context.Context, sourceID string) (*domain.Credential, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, access_token, refresh_token, expiry, api_key
		FROM credentials WHERE source_id = ?
	`, sourceID)

	var cred domain.Credential
	var expiry sql.NullTime
	if err := row.Scan(&cred.SourceID, &cred.AccessToken, &cred.RefreshToken,
		&expiry, &cred.APIKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credentials: %w", err)
	}

	if expiry.Valid {
		cred.Expiry = expiry.Time
	}

	return &cred, nil
}

// Delete removes a source's credential.
func (s *credentialsStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credentials WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore. Records land in a single
// stream_records table keyed by logical table name rather than
// per-stream DDL.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// Append writes records to the given table in one batch.
func (s *recordStore) Append(ctx context.Context, table string, records []json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stream_records (table_name, payload, created_at) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, record := range records {
		if _, err := stmt.ExecContext(ctx, table, string(record), now); err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows in a table.
func (s *recordStore) Count(ctx context.Context, table string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stream_records WHERE table_name = ?", table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// ==================== Helper Functions ====================

// nullTime maps a zero time to NULL for storage.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// scanSource scans a single source row.
func scanSource(row *sql.Row) (*domain.Source, error) {
	var source domain.Source
	if err := row.Scan(&source.ID, &source.Type, &source.Name, &source.DeviceID,
		&source.Active, &source.LastError, &source.CredentialsID,
		&source.CreatedAt, &source.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return &source, nil
}

// scanSourceRows scans a source from *sql.Rows.
func scanSourceRows(rows *sql.Rows) (*domain.Source, error) {
	var source domain.Source
	if err := rows.Scan(&source.ID, &source.Type, &source.Name, &source.DeviceID,
		&source.Active, &source.LastError, &source.CredentialsID,
		&source.CreatedAt, &source.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return &source, nil
}
