package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/tasks"
)

// PurgeScheduler enqueues the maintenance tasks on their cron schedules.
// The heavy lifting happens in the task queue workers, so a slow purge
// never blocks the next tick.
type PurgeScheduler struct {
	client *tasks.Client
	config config.Purge

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
}

// NewPurgeScheduler creates a new scheduler instance.
func NewPurgeScheduler(client *tasks.Client, cfg config.Purge) *PurgeScheduler {
	return &PurgeScheduler{
		client: client,
		config: cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if purging is enabled.
func (s *PurgeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Purge scheduler: disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.enqueueOldDeletedPurge); err != nil {
		return fmt.Errorf("invalid purge schedule '%s': %w", s.config.Schedule, err)
	}
	if _, err := s.cron.AddFunc(s.config.SortkeySchedule, s.enqueueSortkeyPurge); err != nil {
		return fmt.Errorf("invalid sortkey purge schedule '%s': %w", s.config.SortkeySchedule, err)
	}

	s.cron.Start()
	s.isRunning = true

	log.Printf("Purge scheduler: started (rows '%s', sortkeys '%s')",
		s.config.Schedule, s.config.SortkeySchedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *PurgeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("Purge scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *PurgeScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the upcoming fire times, soonest first.
func (s *PurgeScheduler) NextRuns() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		next = append(next, entry.Next)
	}
	return next
}

func (s *PurgeScheduler) enqueueOldDeletedPurge() {
	if _, err := s.client.Add(tasks.PurgeOldDeletedTask{}).Save(); err != nil {
		log.Printf("Purge scheduler: failed to enqueue old-row purge: %v", err)
		return
	}
	log.Printf("Purge scheduler: enqueued old-row purge")
}

func (s *PurgeScheduler) enqueueSortkeyPurge() {
	if _, err := s.client.Add(tasks.PurgeSortkeysTask{}).Save(); err != nil {
		log.Printf("Purge scheduler: failed to enqueue sortkey purge: %v", err)
		return
	}
	log.Printf("Purge scheduler: enqueued sortkey purge")
}
