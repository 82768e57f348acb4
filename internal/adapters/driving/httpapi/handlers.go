package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driving"
)

// ==== Ingestion ====

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req driving.IngestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.router.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type activityResponse struct {
	ID               string `json:"id"`
	SourceType       string `json:"source_type"`
	StreamName       string `json:"stream_name"`
	DeviceID         string `json:"device_id,omitempty"`
	Status           string `json:"status"`
	RecordCount      int    `json:"record_count"`
	RecordsProcessed int    `json:"records_processed"`
	Error            string `json:"error,omitempty"`
	CreatedAt        string `json:"created_at"`
	FinishedAt       string `json:"finished_at,omitempty"`
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	activities, err := s.activities.List(r.Context(), query.Get("source"), query.Get("stream"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityResponse{
			ID:               a.ID,
			SourceType:       a.SourceType,
			StreamName:       a.StreamName,
			DeviceID:         a.DeviceID,
			Status:           string(a.Status),
			RecordCount:      a.RecordCount,
			RecordsProcessed: a.RecordsProcessed,
			Error:            a.Error,
			CreatedAt:        formatTime(a.CreatedAt),
			FinishedAt:       formatTime(a.FinishedAt),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ==== Catalog ====

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

// ==== Sources ====

type createSourceRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	DeviceID string `json:"device_id,omitempty"`
}

type sourceResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	DeviceID  string `json:"device_id,omitempty"`
	Active    bool   `json:"active"`
	LastError string `json:"last_error,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toSourceResponse(source *domain.Source) sourceResponse {
	return sourceResponse{
		ID:        source.ID,
		Type:      source.Type,
		Name:      source.Name,
		DeviceID:  source.DeviceID,
		Active:    source.Active,
		LastError: source.LastError,
		CreatedAt: formatTime(source.CreatedAt),
	}
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	source, err := s.sources.Create(r.Context(), req.Type, req.Name, req.DeviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSourceResponse(source))
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.sources.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]sourceResponse, 0, len(sources))
	for i := range sources {
		out = append(out, toSourceResponse(&sources[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	source, err := s.sources.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSourceResponse(source))
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePauseSource(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.Pause(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResumeSource(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.Resume(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ==== Streams ====

type enableStreamRequest struct {
	Config       map[string]string `json:"config,omitempty"`
	CronSchedule string            `json:"cron_schedule,omitempty"`
}

type streamResponse struct {
	SourceID     string            `json:"source_id"`
	Name         string            `json:"name"`
	Enabled      bool              `json:"enabled"`
	Config       map[string]string `json:"config,omitempty"`
	CronSchedule string            `json:"cron_schedule,omitempty"`
	TargetTable  string            `json:"target_table"`
	LastSyncAt   string            `json:"last_sync_at,omitempty"`
}

func (s *Server) handleEnableStream(w http.ResponseWriter, r *http.Request) {
	var req enableStreamRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sourceID, name := r.PathValue("id"), r.PathValue("stream")
	stream, err := s.sources.EnableStream(r.Context(), sourceID, name, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.CronSchedule != "" {
		if err := s.sources.UpdateStreamSchedule(r.Context(), sourceID, name, req.CronSchedule); err != nil {
			writeError(w, err)
			return
		}
		stream.CronSchedule = req.CronSchedule
	}

	writeJSON(w, http.StatusOK, streamResponse{
		SourceID:     stream.SourceID,
		Name:         stream.Name,
		Enabled:      stream.Enabled,
		Config:       stream.Config,
		CronSchedule: stream.CronSchedule,
		TargetTable:  stream.TargetTable,
		LastSyncAt:   formatTime(stream.LastSyncAt),
	})
}

func (s *Server) handleDisableStream(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.DisableStream(r.Context(), r.PathValue("id"), r.PathValue("stream")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ==== Sync jobs ====

type triggerSyncRequest struct {
	Mode   string `json:"mode,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

type jobResponse struct {
	ID             string `json:"id"`
	SourceID       string `json:"source_id"`
	StreamName     string `json:"stream_name"`
	Mode           string `json:"mode"`
	Status         string `json:"status"`
	RequestedAt    string `json:"requested_at"`
	StartedAt      string `json:"started_at,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`
	RecordsFetched int    `json:"records_fetched"`
	RecordsWritten int    `json:"records_written"`
	Error          string `json:"error,omitempty"`
}

func toJobResponse(job *domain.SyncJob) jobResponse {
	return jobResponse{
		ID:             job.ID,
		SourceID:       job.SourceID,
		StreamName:     job.StreamName,
		Mode:           string(job.Mode.Type),
		Status:         string(job.Status),
		RequestedAt:    formatTime(job.RequestedAt),
		StartedAt:      formatTime(job.StartedAt),
		FinishedAt:     formatTime(job.FinishedAt),
		RecordsFetched: job.RecordsFetched,
		RecordsWritten: job.RecordsWritten,
		Error:          job.Error,
	}
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req triggerSyncRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var requested *domain.SyncMode
	switch req.Mode {
	case "":
		// Engine picks from capabilities and the stored checkpoint.
	case string(domain.SyncIncremental):
		mode := domain.Incremental(req.Cursor)
		requested = &mode
	case string(domain.SyncFullRefresh):
		mode := domain.FullRefresh()
		requested = &mode
	default:
		writeError(w, domain.ErrUnsupportedMode)
		return
	}

	job, err := s.engine.TriggerSync(r.Context(), r.PathValue("id"), r.PathValue("stream"), requested)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleQueryJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	filter := domain.JobFilter{
		SourceID: query.Get("source_id"),
		Limit:    limit,
	}
	for _, status := range query["status"] {
		filter.Statuses = append(filter.Statuses, domain.JobStatus(status))
	}

	jobs, err := s.engine.QueryJobs(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.engine.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// formatTime renders a timestamp as RFC 3339, or empty for the zero
// time so unset fields drop out of the JSON.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
