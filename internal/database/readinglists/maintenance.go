package readinglists

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/entities"
)

// purgeBatchSize bounds one maintenance batch so large sweeps cannot make
// replicas fall arbitrarily far behind.
const purgeBatchSize = 1000

// ReplicationWaiter blocks until read replicas have caught up with the
// primary. Called between maintenance batches as backpressure, not for
// correctness.
type ReplicationWaiter func() error

// MaintenanceRepository holds the owner-agnostic sweeps. It shares the
// storage layer with Repository but deliberately exposes none of the
// owner-scoped operations.
type MaintenanceRepository struct {
	db   *gorm.DB
	wait ReplicationWaiter
}

// NewMaintenanceRepository creates an owner-agnostic repository. wait may
// be nil when there are no replicas to protect.
func NewMaintenanceRepository(db *gorm.DB, wait ReplicationWaiter) *MaintenanceRepository {
	return &MaintenanceRepository{db: db, wait: wait}
}

func (m *MaintenanceRepository) waitForReplication() error {
	if m.wait == nil {
		return nil
	}
	return m.wait()
}

// PurgeOldDeleted hard-deletes lists soft-deleted before the cutoff,
// together with all their entries and sortkeys, then hard-deletes
// individually soft-deleted old entries of surviving lists. Rows with
// updated_at exactly at the cutoff are kept.
func (m *MaintenanceRepository) PurgeOldDeleted(before time.Time) error {
	for {
		var ids []int64
		err := m.db.Model(&entities.List{}).
			Where("deleted = ? AND updated_at < ?", true, before).
			Order("id ASC").Limit(purgeBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		err = m.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("list_id IN ?", ids).Delete(&entities.ListEntrySortkey{}).Error; err != nil {
				return err
			}
			if err := tx.Where("list_id IN ?", ids).Delete(&entities.ListEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("list_id IN ?", ids).Delete(&entities.ListSortkey{}).Error; err != nil {
				return err
			}
			return tx.Where("id IN ?", ids).Delete(&entities.List{}).Error
		})
		if err != nil {
			return err
		}
		log.Printf("[PURGE] Removed %d lists deleted before %s", len(ids), before.Format(time.RFC3339))
		if err := m.waitForReplication(); err != nil {
			return err
		}
		if len(ids) < purgeBatchSize {
			break
		}
	}

	for {
		var ids []int64
		err := m.db.Model(&entities.ListEntry{}).
			Where("deleted = ? AND updated_at < ?", true, before).
			Order("id ASC").Limit(purgeBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		err = m.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("entry_id IN ?", ids).Delete(&entities.ListEntrySortkey{}).Error; err != nil {
				return err
			}
			return tx.Where("id IN ?", ids).Delete(&entities.ListEntry{}).Error
		})
		if err != nil {
			return err
		}
		log.Printf("[PURGE] Removed %d entries deleted before %s", len(ids), before.Format(time.RFC3339))
		if err := m.waitForReplication(); err != nil {
			return err
		}
		if len(ids) < purgeBatchSize {
			break
		}
	}
	return nil
}

// PurgeSortkeys removes sortkey rows whose parent list or entry was
// hard-deleted without the sortkey being cleaned up transactionally
// (teardown takes that shortcut).
func (m *MaintenanceRepository) PurgeSortkeys() error {
	for {
		var ids []int64
		err := m.db.Model(&entities.ListSortkey{}).
			Where("list_id NOT IN (SELECT id FROM reading_lists)").
			Order("list_id ASC").Limit(purgeBatchSize).
			Pluck("list_id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if err := m.db.Where("list_id IN ?", ids).Delete(&entities.ListSortkey{}).Error; err != nil {
			return err
		}
		log.Printf("[PURGE] Removed %d orphaned list sortkeys", len(ids))
		if err := m.waitForReplication(); err != nil {
			return err
		}
		if len(ids) < purgeBatchSize {
			break
		}
	}

	for {
		var ids []int64
		err := m.db.Model(&entities.ListEntrySortkey{}).
			Where("entry_id NOT IN (SELECT id FROM reading_list_entries)").
			Order("entry_id ASC").Limit(purgeBatchSize).
			Pluck("entry_id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if err := m.db.Where("entry_id IN ?", ids).Delete(&entities.ListEntrySortkey{}).Error; err != nil {
			return err
		}
		log.Printf("[PURGE] Removed %d orphaned entry sortkeys", len(ids))
		if err := m.waitForReplication(); err != nil {
			return err
		}
		if len(ids) < purgeBatchSize {
			break
		}
	}
	return nil
}
