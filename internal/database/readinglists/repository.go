// Package readinglists provides the data access layer for per-user reading
// lists: list and entry CRUD with soft delete, cursor pagination,
// change-sync queries, manual ordering and purge.
//
// # Ownership
//
// A Repository is bound to exactly one owner (the central user id) at
// construction; every operation filters by that owner and cross-owner
// access fails with not-own-list / not-own-entry rather than returning
// empty results. Owner-agnostic maintenance sweeps (purge) live on the
// separate MaintenanceRepository so they cannot be reached through an
// owner-scoped value.
//
// # Usage
//
//	repo := readinglists.NewRepository(db, nil, ownerID, projectsRepo, opts)
//	list, merged, err := repo.AddList("dogs", "Woof!")
//
// # Concurrency
//
// Every mutating operation runs in one transaction and re-verifies state
// under a row lock before writing, so overlapping writes from multiple
// devices of the same user cannot both pass validation. Lock waits are
// bounded by the store's lock timeout and surface as plain errors; the
// repository never retries on behalf of the caller.
package readinglists

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wikimedia/readinglists/internal/entities"
)

// Field length caps, in bytes.
const (
	MaxListNameBytes        = 255
	MaxListDescriptionBytes = 767
	MaxEntryTitleBytes      = 383
)

// DefaultDeletedRetention is how long soft-deleted rows are kept for sync
// clients before the purge job may remove them.
const DefaultDeletedRetention = 30 * 24 * time.Hour

// Limits caps the list count per owner and the entry count per list.
// Zero means no limit.
type Limits struct {
	MaxListsPerUser   int
	MaxEntriesPerList int
}

// ProjectResolver is the project registry collaborator.
type ProjectResolver interface {
	// ResolveOrCreate returns the internal id for a project identifier,
	// registering it on first reference unless the registry is strict.
	ResolveOrCreate(project string) (int64, error)
	// Resolve returns the id of an already registered project, or false.
	Resolve(project string) (int64, bool, error)
}

// Options configure a Repository beyond its connections.
type Options struct {
	Limits Limits
	// DeletedRetention overrides DefaultDeletedRetention when positive.
	DeletedRetention time.Duration
}

// Repository owns all reads and writes for one owner's reading lists.
type Repository struct {
	db        *gorm.DB
	reader    *gorm.DB
	ownerID   int64
	projects  ProjectResolver
	limits    Limits
	retention time.Duration
}

// NewRepository creates an owner-scoped repository. db is the write
// connection; reader may be a replica connection and defaults to db.
func NewRepository(db, reader *gorm.DB, ownerID int64, projects ProjectResolver, opts Options) *Repository {
	if reader == nil {
		reader = db
	}
	retention := opts.DeletedRetention
	if retention <= 0 {
		retention = DefaultDeletedRetention
	}
	return &Repository{
		db:        db,
		reader:    reader,
		ownerID:   ownerID,
		projects:  projects,
		limits:    opts.Limits,
		retention: retention,
	}
}

// OwnerID returns the central user id this repository is bound to.
func (r *Repository) OwnerID() int64 {
	return r.ownerID
}

// forUpdate adds a row lock where the dialect supports it. SQLite has no
// SELECT ... FOR UPDATE; its write transaction already serializes writers.
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isSetUp reports whether a non-deleted default list exists for ownerID.
// With lockForUpdate the default row doubles as a per-owner mutation
// semaphore for the rest of the transaction.
func isSetUp(tx *gorm.DB, ownerID int64, lockForUpdate bool) (bool, error) {
	q := tx
	if lockForUpdate {
		q = forUpdate(q)
	}
	var def entities.List
	err := q.Where("owner_id = ? AND is_default = ? AND deleted = ?", ownerID, true, false).
		First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsSetupForUser reports whether the owner has been set up. lockForUpdate
// is only meaningful inside a surrounding transaction.
func (r *Repository) IsSetupForUser(lockForUpdate bool) (bool, error) {
	if lockForUpdate {
		return isSetUp(r.db, r.ownerID, true)
	}
	return isSetUp(r.reader, r.ownerID, false)
}

// SetupForUser creates the owner's default list. A repeated setup fails
// with already-set-up. Re-setup after teardown creates a fresh default list
// with a new id; callers must not assume default-list id stability across
// teardown/setup cycles.
func (r *Repository) SetupForUser() (*entities.List, error) {
	var list *entities.List
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := isSetUp(tx, r.ownerID, true)
		if err != nil {
			return err
		}
		if ok {
			return NewError(KindAlreadySetUp, r.ownerID)
		}
		list = &entities.List{OwnerID: r.ownerID, IsDefault: true}
		return tx.Create(list).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Set up reading lists for owner %d (default list %d)", r.ownerID, list.ID)
	return list, nil
}

// TeardownForUser hard-deletes everything the owner has: lists, entries and
// sortkey rows. Irreversible, and independent of the purge retention
// window. Fails with not-set-up when there is nothing to tear down.
func (r *Repository) TeardownForUser() error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := isSetUp(tx, r.ownerID, true)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(KindNotSetUp, r.ownerID)
		}
		if err := tx.Exec(
			"DELETE FROM reading_list_entry_sortkeys WHERE list_id IN (SELECT id FROM reading_lists WHERE owner_id = ?)",
			r.ownerID).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", r.ownerID).Delete(&entities.ListSortkey{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", r.ownerID).Delete(&entities.ListEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ?", r.ownerID).Delete(&entities.List{}).Error
	})
	if err != nil {
		return err
	}
	log.Printf("Tore down reading lists for owner %d", r.ownerID)
	return nil
}

// selectValidList loads a list and verifies it is usable by this owner for
// writes: it must exist, belong to the owner and not be soft-deleted.
func (r *Repository) selectValidList(tx *gorm.DB, id int64, lockForUpdate bool) (*entities.List, error) {
	q := tx
	if lockForUpdate {
		q = forUpdate(q)
	}
	var list entities.List
	err := q.First(&list, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(KindNoSuchList, id)
	}
	if err != nil {
		return nil, err
	}
	if list.OwnerID != r.ownerID {
		return nil, NewError(KindNotOwnList, id)
	}
	if list.Deleted {
		return nil, NewError(KindListDeleted, id)
	}
	return &list, nil
}

// DeletedExpiry returns the retention horizon: sync clients whose since
// parameter predates it cannot be answered correctly because purge may
// already have discarded the needed history.
func (r *Repository) DeletedExpiry() time.Time {
	return time.Now().Add(-r.retention)
}
