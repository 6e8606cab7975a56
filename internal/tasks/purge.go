package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// Purger runs the batched maintenance deletions.
type Purger interface {
	PurgeOldDeleted(before time.Time) error
	PurgeSortkeys() error
}

// PurgeOldDeletedTask permanently removes rows that were soft-deleted
// before the retention window.
type PurgeOldDeletedTask struct {
	// RetentionDays overrides the configured retention when positive.
	RetentionDays int `json:"retention_days,omitempty"`
}

// Config returns the queue configuration for old-row purge tasks.
func (t PurgeOldDeletedTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_old_deleted",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeOldDeletedProcessor creates a processor function for PurgeOldDeletedTask.
func PurgeOldDeletedProcessor(purger Purger, defaultRetention time.Duration) backlite.QueueProcessor[PurgeOldDeletedTask] {
	return func(ctx context.Context, task PurgeOldDeletedTask) error {
		if purger == nil {
			return fmt.Errorf("purger not configured")
		}

		retention := defaultRetention
		if task.RetentionDays > 0 {
			retention = time.Duration(task.RetentionDays) * 24 * time.Hour
		}
		before := time.Now().UTC().Add(-retention)

		if err := purger.PurgeOldDeleted(before); err != nil {
			return fmt.Errorf("purge old deleted rows: %w", err)
		}

		log.Printf("[TASK] Purged rows deleted before %s", before.Format(time.RFC3339))
		return nil
	}
}

// NewPurgeOldDeletedQueue creates a backlite queue for old-row purge tasks.
func NewPurgeOldDeletedQueue(purger Purger, defaultRetention time.Duration) backlite.Queue {
	return backlite.NewQueue(PurgeOldDeletedProcessor(purger, defaultRetention))
}

// PurgeSortkeysTask removes manual ordering rows whose lists or entries
// are gone.
type PurgeSortkeysTask struct{}

// Config returns the queue configuration for sortkey purge tasks.
func (t PurgeSortkeysTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_sortkeys",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeSortkeysProcessor creates a processor function for PurgeSortkeysTask.
func PurgeSortkeysProcessor(purger Purger) backlite.QueueProcessor[PurgeSortkeysTask] {
	return func(ctx context.Context, task PurgeSortkeysTask) error {
		if purger == nil {
			return fmt.Errorf("purger not configured")
		}

		if err := purger.PurgeSortkeys(); err != nil {
			return fmt.Errorf("purge orphan sortkeys: %w", err)
		}

		log.Println("[TASK] Purged orphan sortkeys")
		return nil
	}
}

// NewPurgeSortkeysQueue creates a backlite queue for sortkey purge tasks.
func NewPurgeSortkeysQueue(purger Purger) backlite.Queue {
	return backlite.NewQueue(PurgeSortkeysProcessor(purger))
}
