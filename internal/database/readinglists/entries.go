package readinglists

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/entities"
)

// EntryPage is one page of entries plus the continuation token for the
// next page, empty when this is the last page.
type EntryPage struct {
	Entries []entities.ListEntry `json:"entries"`
	Next    string               `json:"next,omitempty"`
}

// For entries the "name" sort orders by title.
var entryColumns = pageColumns{name: "title", updated: "updated_at", id: "id"}

// AddListEntry saves a page into a list. The (list, project, title) key is
// unique regardless of delete state, so the call branches three ways under
// a row lock: no row inserts a new active one; a soft-deleted row is
// revived in place, keeping its id and refreshing both timestamps; an
// active row is a no-op merge returned with merged=true. The entry cap is
// checked before that branch, counting non-deleted entries only.
func (r *Repository) AddListEntry(listID int64, project, title string) (*entities.ListEntry, bool, error) {
	if len(title) > MaxEntryTitleBytes {
		return nil, false, NewError(KindTooLong, "title", MaxEntryTitleBytes)
	}

	projectID, err := r.projects.ResolveOrCreate(project)
	if err != nil {
		return nil, false, err
	}

	var (
		entry  *entities.ListEntry
		merged bool
	)
	err = r.db.Transaction(func(tx *gorm.DB) error {
		list, err := r.selectValidList(tx, listID, true)
		if err != nil {
			return err
		}

		if max := r.limits.MaxEntriesPerList; max > 0 {
			var count int64
			if err := tx.Model(&entities.ListEntry{}).
				Where("list_id = ? AND deleted = ?", listID, false).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(max) {
				return NewError(KindEntryLimit, max)
			}
		}

		var existing entities.ListEntry
		err = forUpdate(tx).
			Where("list_id = ? AND project_id = ? AND title = ?", listID, projectID, title).
			First(&existing).Error
		switch {
		case err == nil && !existing.Deleted:
			entry, merged = &existing, true
			return nil
		case err == nil:
			// Revive the soft-deleted row so the id stays stable for
			// syncing clients.
			if err := tx.Model(&existing).Updates(map[string]any{
				"deleted":    false,
				"created_at": time.Now(),
			}).Error; err != nil {
				return err
			}
			if err := tx.First(&existing, existing.ID).Error; err != nil {
				return err
			}
			entry = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = &entities.ListEntry{
				ListID:    listID,
				OwnerID:   r.ownerID,
				ProjectID: projectID,
				Title:     title,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// Size counts non-deleted entries; the change is list state sync
		// clients must observe, so the list's updated_at moves with it.
		return tx.Model(list).Update("size", gorm.Expr("size + 1")).Error
	})
	if err != nil {
		return nil, false, err
	}
	log.Printf("Added entry %d (%s:%q) to list %d for owner %d, merged=%v",
		entry.ID, project, title, listID, r.ownerID, merged)
	return entry, merged, nil
}

// DeleteListEntry soft-deletes one entry by id.
func (r *Repository) DeleteListEntry(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var entry entities.ListEntry
		err := forUpdate(tx).First(&entry, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNoSuchEntry, id)
		}
		if err != nil {
			return err
		}
		if entry.OwnerID != r.ownerID {
			return NewError(KindNotOwnEntry, id)
		}

		var list entities.List
		if err := forUpdate(tx).First(&list, entry.ListID).Error; err != nil {
			return fmt.Errorf("loading parent list %d of entry %d: %w", entry.ListID, id, err)
		}
		if list.Deleted {
			return NewError(KindListDeleted, list.ID)
		}
		if entry.Deleted {
			return NewError(KindEntryDeleted, id)
		}

		res := tx.Model(&entry).Update("deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete of entry %d affected no rows", id)
		}
		return tx.Model(&list).Update("size", gorm.Expr("size - 1")).Error
	})
	if err != nil {
		return err
	}
	log.Printf("Deleted entry %d for owner %d", id, r.ownerID)
	return nil
}

// GetListEntries returns one page of non-deleted entries across the given
// lists. Every list is validated first, fail-fast, so the error names
// exactly which list id is the problem instead of silently excluding it.
func (r *Repository) GetListEntries(listIDs []int64, opts PageOptions) (*EntryPage, error) {
	if len(listIDs) == 0 {
		return nil, NewError(KindEmptyListIds)
	}
	for _, id := range listIDs {
		if _, err := r.selectValidList(r.reader, id, false); err != nil {
			return nil, err
		}
	}

	q := r.reader.Model(&entities.ListEntry{}).
		Where("list_id IN ? AND deleted = ?", listIDs, false)
	return r.pageEntries(q, entryColumns, opts)
}

// pageEntries is the entry-side twin of pageLists.
func (r *Repository) pageEntries(q *gorm.DB, cols pageColumns, opts PageOptions) (*EntryPage, error) {
	by, dir := opts.SortBy, opts.Dir
	if by == "" {
		by = SortByName
	}
	if dir == "" {
		dir = Ascending
	}
	limit := opts.limit()

	if opts.Cursor != "" {
		cur, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		q, err = cols.applyCursor(q, cur, by, dir)
		if err != nil {
			return nil, err
		}
	}

	var entries []entities.ListEntry
	err := q.Order(cols.orderClause(by, dir)).Limit(limit + 1).Find(&entries).Error
	if err != nil {
		return nil, err
	}

	page := &EntryPage{}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		page.Next = Cursor{By: by, Name: last.Title, Updated: last.UpdatedAt, ID: last.ID}.Encode()
	}
	page.Entries = entries
	return page, nil
}
