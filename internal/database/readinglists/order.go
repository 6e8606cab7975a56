package readinglists

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/entities"
)

// GetListOrder returns the owner's non-deleted list ids in manual order.
// Lists without a sortkey row sort after ordered ones, by id.
func (r *Repository) GetListOrder() ([]int64, error) {
	var ids []int64
	err := r.reader.Table("reading_lists").
		Joins("LEFT JOIN reading_list_sortkeys ON reading_list_sortkeys.list_id = reading_lists.id").
		Where("reading_lists.owner_id = ? AND reading_lists.deleted = ?", r.ownerID, false).
		Order("reading_list_sortkeys.position IS NULL, reading_list_sortkeys.position ASC, reading_lists.id ASC").
		Pluck("reading_lists.id", &ids).Error
	return ids, err
}

// SetListOrder atomically replaces the owner's list order. The supplied
// ids must be exactly the current non-deleted list set, each id once; any
// mismatch fails naming the offending id. The default list's updated_at is touched so
// sync clients detect the order change as a list-level update.
func (r *Repository) SetListOrder(order []int64) error {
	if len(order) == 0 {
		return NewError(KindEmptyOrder)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := isSetUp(tx, r.ownerID, true)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(KindNotSetUp, r.ownerID)
		}

		var lists []entities.List
		if err := forUpdate(tx).
			Where("owner_id = ? AND deleted = ?", r.ownerID, false).
			Find(&lists).Error; err != nil {
			return err
		}
		owned := make(map[int64]bool, len(lists))
		for _, l := range lists {
			owned[l.ID] = true
		}

		supplied := make(map[int64]bool, len(order))
		for _, id := range order {
			if supplied[id] {
				return NewError(KindDuplicateOrder, id)
			}
			supplied[id] = true
			if owned[id] {
				continue
			}
			var list entities.List
			err := tx.First(&list, id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNoSuchList, id)
			}
			if err != nil {
				return err
			}
			if list.OwnerID != r.ownerID {
				return NewError(KindNotOwnList, id)
			}
			return NewError(KindListDeleted, id)
		}
		for _, l := range lists {
			if !supplied[l.ID] {
				return NewError(KindMissingList, l.ID)
			}
		}

		if err := tx.Where("owner_id = ?", r.ownerID).Delete(&entities.ListSortkey{}).Error; err != nil {
			return err
		}
		keys := make([]entities.ListSortkey, len(order))
		for i, id := range order {
			keys[i] = entities.ListSortkey{ListID: id, OwnerID: r.ownerID, Position: int64(i)}
		}
		if err := tx.Create(&keys).Error; err != nil {
			return err
		}

		return tx.Model(&entities.List{}).
			Where("owner_id = ? AND is_default = ? AND deleted = ?", r.ownerID, true, false).
			Update("updated_at", time.Now()).Error
	})
}

// GetListEntryOrder returns the non-deleted entry ids of one list in
// manual order, unordered entries last by id.
func (r *Repository) GetListEntryOrder(listID int64) ([]int64, error) {
	if _, err := r.selectValidList(r.reader, listID, false); err != nil {
		return nil, err
	}
	var ids []int64
	err := r.reader.Table("reading_list_entries").
		Joins("LEFT JOIN reading_list_entry_sortkeys ON reading_list_entry_sortkeys.entry_id = reading_list_entries.id").
		Where("reading_list_entries.list_id = ? AND reading_list_entries.deleted = ?", listID, false).
		Order("reading_list_entry_sortkeys.position IS NULL, reading_list_entry_sortkeys.position ASC, reading_list_entries.id ASC").
		Pluck("reading_list_entries.id", &ids).Error
	return ids, err
}

// SetListEntryOrder atomically replaces the manual order of one list's
// entries, mirroring SetListOrder's validation. The list's updated_at is
// touched so the change shows up in the lists feed.
func (r *Repository) SetListEntryOrder(listID int64, order []int64) error {
	if len(order) == 0 {
		return NewError(KindEmptyOrder)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		list, err := r.selectValidList(tx, listID, true)
		if err != nil {
			return err
		}

		var current []entities.ListEntry
		if err := forUpdate(tx).
			Where("list_id = ? AND deleted = ?", listID, false).
			Find(&current).Error; err != nil {
			return err
		}
		inList := make(map[int64]bool, len(current))
		for _, e := range current {
			inList[e.ID] = true
		}

		supplied := make(map[int64]bool, len(order))
		for _, id := range order {
			if supplied[id] {
				return NewError(KindDuplicateOrder, id)
			}
			supplied[id] = true
			if inList[id] {
				continue
			}
			var entry entities.ListEntry
			err := tx.First(&entry, id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNoSuchEntry, id)
			}
			if err != nil {
				return err
			}
			if entry.OwnerID != r.ownerID {
				return NewError(KindNotOwnEntry, id)
			}
			if entry.Deleted {
				return NewError(KindEntryDeleted, id)
			}
			// Owned and live, but belongs to a different list.
			return NewError(KindNoSuchEntry, id)
		}
		for _, e := range current {
			if !supplied[e.ID] {
				return NewError(KindMissingEntry, e.ID)
			}
		}

		if err := tx.Where("list_id = ?", listID).Delete(&entities.ListEntrySortkey{}).Error; err != nil {
			return err
		}
		keys := make([]entities.ListEntrySortkey, len(order))
		for i, id := range order {
			keys[i] = entities.ListEntrySortkey{EntryID: id, ListID: listID, Position: int64(i)}
		}
		if err := tx.Create(&keys).Error; err != nil {
			return err
		}

		return tx.Model(list).Update("updated_at", time.Now()).Error
	})
}
