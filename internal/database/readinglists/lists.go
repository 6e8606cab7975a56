package readinglists

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/entities"
)

// ListPage is one page of lists plus the continuation token for the next
// page, empty when this is the last page.
type ListPage struct {
	Lists []entities.List `json:"lists"`
	Next  string          `json:"next,omitempty"`
}

var listColumns = pageColumns{name: "name", updated: "updated_at", id: "id"}

// AddList creates a list, or merges into an existing non-deleted list with
// the same name: the existing list's description is updated and it is
// returned with merged=true instead of inserting a duplicate row. The list
// count cap is checked before duplicate detection, so a merge call on a
// full account still fails with list-limit.
func (r *Repository) AddList(name, description string) (*entities.List, bool, error) {
	if name == "" {
		return nil, false, NewError(KindEmptyName)
	}
	if len(name) > MaxListNameBytes {
		return nil, false, NewError(KindTooLong, "name", MaxListNameBytes)
	}
	if len(description) > MaxListDescriptionBytes {
		return nil, false, NewError(KindTooLong, "description", MaxListDescriptionBytes)
	}

	var (
		list   *entities.List
		merged bool
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := isSetUp(tx, r.ownerID, true)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(KindNotSetUp, r.ownerID)
		}

		if max := r.limits.MaxListsPerUser; max > 0 {
			var count int64
			if err := tx.Model(&entities.List{}).
				Where("owner_id = ? AND deleted = ?", r.ownerID, false).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(max) {
				return NewError(KindListLimit, max)
			}
		}

		var existing entities.List
		err = forUpdate(tx).
			Where("owner_id = ? AND name = ? AND deleted = ?", r.ownerID, name, false).
			First(&existing).Error
		if err == nil {
			if err := tx.Model(&existing).Update("description", description).Error; err != nil {
				return err
			}
			if err := tx.First(&existing, existing.ID).Error; err != nil {
				return err
			}
			list, merged = &existing, true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		list = &entities.List{OwnerID: r.ownerID, Name: name, Description: description}
		return tx.Create(list).Error
	})
	if err != nil {
		return nil, false, err
	}
	log.Printf("Added list %d (%q) for owner %d, merged=%v", list.ID, name, r.ownerID, merged)
	return list, merged, nil
}

// UpdateList changes a list's name and/or description; nil fields are left
// unchanged. updated_at is bumped even when no field is supplied. A name
// collision with another non-deleted list fails with duplicate-list (unlike
// AddList, which merges).
func (r *Repository) UpdateList(id int64, name, description *string) (*entities.List, error) {
	if name != nil {
		if *name == "" {
			return nil, NewError(KindEmptyName)
		}
		if len(*name) > MaxListNameBytes {
			return nil, NewError(KindTooLong, "name", MaxListNameBytes)
		}
	}
	if description != nil && len(*description) > MaxListDescriptionBytes {
		return nil, NewError(KindTooLong, "description", MaxListDescriptionBytes)
	}

	var list *entities.List
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		list, err = r.selectValidList(tx, id, true)
		if err != nil {
			return err
		}
		if list.IsDefault {
			return NewError(KindCannotUpdateDefaultList, id)
		}

		updates := map[string]any{"updated_at": time.Now()}
		if name != nil && *name != list.Name {
			var dup entities.List
			err := tx.Where("owner_id = ? AND name = ? AND deleted = ? AND id <> ?",
				r.ownerID, *name, false, id).First(&dup).Error
			if err == nil {
				return NewError(KindDuplicateList, *name)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if name != nil {
			updates["name"] = *name
		}
		if description != nil {
			updates["description"] = *description
		}

		res := tx.Model(list).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The pre-check and the write disagree about state; not part
			// of the recoverable taxonomy.
			return fmt.Errorf("update of list %d affected no rows", id)
		}
		return tx.First(list, id).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList soft-deletes a list. The default list cannot be deleted.
// Entries keep their own deleted flags; purge removes them together with
// the list after the retention window.
func (r *Repository) DeleteList(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		list, err := r.selectValidList(tx, id, true)
		if err != nil {
			return err
		}
		if list.IsDefault {
			return NewError(KindCannotDeleteDefaultList, id)
		}
		res := tx.Model(list).Update("deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete of list %d affected no rows", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Deleted list %d for owner %d", id, r.ownerID)
	return nil
}

// GetAllLists returns one page of the owner's non-deleted lists.
func (r *Repository) GetAllLists(opts PageOptions) (*ListPage, error) {
	q := r.reader.Model(&entities.List{}).
		Where("owner_id = ? AND deleted = ?", r.ownerID, false)
	return r.pageLists(q, opts)
}

// pageLists runs the shared keyset pagination over a prepared list query:
// fetch limit+1 rows, use the extra row only to decide whether to emit a
// continuation cursor.
func (r *Repository) pageLists(q *gorm.DB, opts PageOptions) (*ListPage, error) {
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
		q, err = listColumns.applyCursor(q, cur, by, dir)
		if err != nil {
			return nil, err
		}
	}

	var lists []entities.List
	err := q.Order(listColumns.orderClause(by, dir)).Limit(limit + 1).Find(&lists).Error
	if err != nil {
		return nil, err
	}

	page := &ListPage{}
	if len(lists) > limit {
		lists = lists[:limit]
		last := lists[len(lists)-1]
		page.Next = Cursor{By: by, Name: last.Name, Updated: last.UpdatedAt, ID: last.ID}.Encode()
	}
	page.Lists = lists
	return page, nil
}

// GetListsByPage returns one page of the owner's non-deleted lists that
// contain the given page, ordered and cursored by list id. An unregistered
// project trivially contains no lists and yields an empty page.
func (r *Repository) GetListsByPage(project, title string, limit int, cursor string) (*ListPage, error) {
	pid, ok, err := r.projects.Resolve(project)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ListPage{Lists: []entities.List{}}, nil
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	q := r.reader.Model(&entities.List{}).
		Where("owner_id = ? AND deleted = ?", r.ownerID, false).
		Where("id IN (SELECT list_id FROM reading_list_entries WHERE project_id = ? AND title = ? AND deleted = ?)",
			pid, title, false)
	if cursor != "" {
		cur, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		if cur.By != "" {
			return nil, ErrBadCursor
		}
		q = q.Where("id > ?", cur.ID)
	}

	var lists []entities.List
	if err := q.Order("id ASC").Limit(limit + 1).Find(&lists).Error; err != nil {
		return nil, err
	}

	page := &ListPage{}
	if len(lists) > limit {
		lists = lists[:limit]
		page.Next = Cursor{ID: lists[len(lists)-1].ID}.Encode()
	}
	page.Lists = lists
	return page, nil
}
