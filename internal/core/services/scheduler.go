package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/logger"
)

// Scheduler triggers sync jobs for streams whose cron schedule is due.
// It is a pure core service with no external control API. Overlap with
// a still-running sync surfaces as a conflict from admission and is
// ignored; the one-active-job invariant already refuses the duplicate.
type Scheduler struct {
	sourceStore driven.SourceStore
	engine      driving.SyncEngine
	parser      cron.Parser

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	lastRuns map[string]time.Time
}

// NewScheduler creates a scheduler over the given engine.
func NewScheduler(sourceStore driven.SourceStore, engine driving.SyncEngine) *Scheduler {
	return &Scheduler{
		sourceStore: sourceStore,
		engine:      engine,
		parser:      cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		lastRuns:    make(map[string]time.Time),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.checkAndTriggerDueStreams(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndTriggerDueStreams(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// checkAndTriggerDueStreams scans all enabled streams and triggers
// syncs for those whose schedule has come due.
func (s *Scheduler) checkAndTriggerDueStreams(ctx context.Context) {
	sources, err := s.sourceStore.List(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list sources: %v", err)
		return
	}

	now := time.Now()
	for i := range sources {
		source := sources[i]
		if !source.Active {
			continue
		}

		streams, err := s.sourceStore.ListStreams(ctx, source.ID)
		if err != nil {
			log.Printf("scheduler: failed to list streams for %s: %v", source.ID, err)
			continue
		}

		for j := range streams {
			stream := streams[j]
			if !stream.Enabled || stream.CronSchedule == "" {
				continue
			}
			if s.isDue(stream, now) {
				s.trigger(ctx, source.ID, stream.Name, now)
			}
		}
	}
}

// isDue reports whether the stream's cron schedule fires between its
// last trigger and now. Streams never triggered before use their
// last-sync timestamp as the baseline, so a fresh stream runs on the
// first due slot rather than immediately at startup.
func (s *Scheduler) isDue(stream domain.Stream, now time.Time) bool {
	schedule, err := s.parser.Parse(stream.CronSchedule)
	if err != nil {
		log.Printf("scheduler: invalid cron %q for %s/%s: %v",
			stream.CronSchedule, stream.SourceID, stream.Name, err)
		return false
	}

	key := stream.SourceID + "/" + stream.Name
	s.mu.Lock()
	baseline, ok := s.lastRuns[key]
	s.mu.Unlock()
	if !ok {
		baseline = stream.LastSyncAt
	}
	if baseline.IsZero() {
		return true
	}
	return !schedule.Next(baseline).After(now)
}

// trigger admits one scheduled sync, ignoring conflicts.
func (s *Scheduler) trigger(ctx context.Context, sourceID, streamName string, now time.Time) {
	key := sourceID + "/" + streamName
	s.mu.Lock()
	s.lastRuns[key] = now
	s.mu.Unlock()

	job, err := s.engine.TriggerSync(ctx, sourceID, streamName, nil)
	if err != nil {
		if errors.Is(err, domain.ErrSyncConflict) {
			logger.Debug("Scheduled sync for %s skipped: previous run still active", key)
			return
		}
		log.Printf("scheduler: failed to trigger sync for %s: %v", key, err)
		return
	}
	logger.Info("Scheduled sync %s admitted for %s", job.ID, key)
}
