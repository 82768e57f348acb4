// Package spool ingests batch files dropped into a watched directory.
// Desktop agents without network access to the server write JSON batch
// files into the spool; the watcher feeds them through the ingestion
// router and moves them aside when done.
package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/logger"
)

// settleDelay gives the writing process time to finish the file before
// the watcher reads it.
const settleDelay = 500 * time.Millisecond

// doneDir and failedDir are subdirectories processed files move to.
const (
	doneDir   = "done"
	failedDir = "failed"
)

// Watcher feeds spool files to the ingestion router.
type Watcher struct {
	dir    string
	router driving.IngestionRouter

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher over the given spool directory.
func NewWatcher(dir string, router driving.IngestionRouter) *Watcher {
	return &Watcher{dir: dir, router: router}
}

// Start processes existing spool files, then watches for new ones until
// the context ends. It blocks; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	for _, sub := range []string{doneDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0700); err != nil {
			return fmt.Errorf("creating spool subdirectory: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating spool watcher: %w", err)
	}
	defer watcher.Close()

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching spool directory: %w", err)
	}

	// Files present before the watch started
	w.drainExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isBatchFile(event.Name) {
				continue
			}
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				select {
				case <-ctx.Done():
					return
				case <-time.After(settleDelay):
				}
				w.processFile(ctx, path)
			}(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			logger.Warn("Spool watcher error: %v", err)
		}
	}
}

// drainExisting processes batch files already in the spool.
func (w *Watcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Reading spool directory: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isBatchFile(entry.Name()) {
			continue
		}
		w.processFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// processFile reads one batch file, ingests it and moves it aside.
// Undecodable or rejected files land in failed/ for inspection rather
// than being retried forever.
func (w *Watcher) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return // already handled
		}
		logger.Warn("Reading spool file %s: %v", path, err)
		return
	}

	var req driving.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("Spool file %s is not a valid batch: %v", path, err)
		w.moveTo(path, failedDir)
		return
	}

	resp, err := w.router.Ingest(ctx, req)
	if err != nil {
		logger.Warn("Ingesting spool file %s: %v", path, err)
		w.moveTo(path, failedDir)
		return
	}

	logger.Debug("Spool file %s ingested: %d accepted, %d rejected (activity %s)",
		filepath.Base(path), resp.Accepted, resp.Rejected, resp.ActivityID)
	w.moveTo(path, doneDir)
}

func (w *Watcher) moveTo(path, sub string) {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		logger.Warn("Moving spool file %s: %v", path, err)
	}
}

func isBatchFile(path string) bool {
	return strings.HasSuffix(path, ".json")
}
