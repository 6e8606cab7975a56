package readinglists

import (
	"time"

	"github.com/wikimedia/readinglists/internal/entities"
)

// Qualified columns for the entries-changed join, where both tables carry
// id and updated_at.
var syncEntryColumns = pageColumns{
	name:    "reading_list_entries.title",
	updated: "reading_list_entries.updated_at",
	id:      "reading_list_entries.id",
}

// GetListsByDateUpdated returns one page of the owner's lists changed
// after since. Soft-deleted lists are included so sync clients can
// propagate deletions; callers must reject since values older than
// DeletedExpiry before asking, because purge may have discarded the
// history needed to answer correctly.
func (r *Repository) GetListsByDateUpdated(since time.Time, opts PageOptions) (*ListPage, error) {
	if opts.SortBy == "" {
		opts.SortBy = SortByUpdated
	}
	q := r.reader.Model(&entities.List{}).
		Where("owner_id = ? AND updated_at > ?", r.ownerID, since)
	return r.pageLists(q, opts)
}

// GetListEntriesByDateUpdated returns one page of the owner's entries
// changed after since, including soft-deleted entries. Entries of deleted
// lists are excluded: the list deletion itself is surfaced by the lists
// feed, not duplicated here.
func (r *Repository) GetListEntriesByDateUpdated(since time.Time, opts PageOptions) (*EntryPage, error) {
	if opts.SortBy == "" {
		opts.SortBy = SortByUpdated
	}
	q := r.reader.Model(&entities.ListEntry{}).
		Joins("JOIN reading_lists ON reading_lists.id = reading_list_entries.list_id").
		Where("reading_lists.deleted = ?", false).
		Where("reading_list_entries.owner_id = ? AND reading_list_entries.updated_at > ?", r.ownerID, since)
	return r.pageEntries(q, syncEntryColumns, opts)
}
