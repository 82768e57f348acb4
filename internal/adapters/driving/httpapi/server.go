// Package httpapi exposes the ingestion, sync and source management
// operations over HTTP. Device agents push batches here; the CLI and
// web UI drive syncs and browse history through the same surface.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/core/services"
	"github.com/ariata/ariata/internal/logger"
)

// Server is the HTTP driving adapter.
type Server struct {
	router     driving.IngestionRouter
	engine     driving.SyncEngine
	catalog    driving.Catalog
	sources    *services.SourceService
	activities driven.ActivityStore

	httpServer *http.Server
}

// NewServer creates the HTTP server over the given services.
func NewServer(
	router driving.IngestionRouter,
	engine driving.SyncEngine,
	catalog driving.Catalog,
	sources *services.SourceService,
	activities driven.ActivityStore,
) *Server {
	return &Server{
		router:     router,
		engine:     engine,
		catalog:    catalog,
		sources:    sources,
		activities: activities,
	}
}

// Handler returns the route table. Exposed separately so tests can
// drive it through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)

	mux.HandleFunc("POST /v1/ingest", s.handleIngest)
	mux.HandleFunc("GET /v1/activities", s.handleListActivities)

	mux.HandleFunc("POST /v1/sources", s.handleCreateSource)
	mux.HandleFunc("GET /v1/sources", s.handleListSources)
	mux.HandleFunc("GET /v1/sources/{id}", s.handleGetSource)
	mux.HandleFunc("DELETE /v1/sources/{id}", s.handleDeleteSource)
	mux.HandleFunc("POST /v1/sources/{id}/pause", s.handlePauseSource)
	mux.HandleFunc("POST /v1/sources/{id}/resume", s.handleResumeSource)

	mux.HandleFunc("PUT /v1/sources/{id}/streams/{stream}", s.handleEnableStream)
	mux.HandleFunc("DELETE /v1/sources/{id}/streams/{stream}", s.handleDisableStream)
	mux.HandleFunc("POST /v1/sources/{id}/streams/{stream}/sync", s.handleTriggerSync)

	mux.HandleFunc("GET /v1/jobs", s.handleQueryJobs)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /v1/jobs/{id}/cancel", s.handleCancelJob)

	return mux
}

// Start begins serving on the given address. Blocks until the server
// stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	logger.Info("HTTP server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
