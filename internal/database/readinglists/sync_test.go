package readinglists

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/readinglists/internal/entities"
)

func TestGetListsByDateUpdated_IncludesDeleted(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	kept, _, err := repo.AddList("kept", "")
	require.NoError(t, err)
	gone, _, err := repo.AddList("gone", "")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteList(gone.ID))

	since := time.Now().Add(-time.Hour)
	page, err := repo.GetListsByDateUpdated(since, PageOptions{Limit: 50})
	require.NoError(t, err)

	ids := listIDs(page.Lists)
	assert.Contains(t, ids, kept.ID)
	// The deletion itself is a change sync clients must see
	assert.Contains(t, ids, gone.ID)
	for _, l := range page.Lists {
		if l.ID == gone.ID {
			assert.True(t, l.Deleted)
		}
	}
}

func TestGetListsByDateUpdated_ExcludesUnchanged(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	old, _, err := repo.AddList("old", "")
	require.NoError(t, err)
	fresh, _, err := repo.AddList("fresh", "")
	require.NoError(t, err)

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&entities.List{}).Where("id = ?", old.ID).
		UpdateColumn("updated_at", stale).Error)

	since := time.Now().Add(-time.Hour)
	page, err := repo.GetListsByDateUpdated(since, PageOptions{Limit: 50})
	require.NoError(t, err)

	ids := listIDs(page.Lists)
	assert.Contains(t, ids, fresh.ID)
	assert.NotContains(t, ids, old.ID)
}

func TestGetListsByDateUpdated_DefaultsToUpdatedSort(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	b, _, err := repo.AddList("b", "")
	require.NoError(t, err)
	a, _, err := repo.AddList("a", "")
	require.NoError(t, err)

	base := time.Now().Add(-30 * time.Minute)
	require.NoError(t, db.Model(&entities.List{}).Where("id = ?", b.ID).
		UpdateColumn("updated_at", base.Add(2*time.Minute)).Error)
	require.NoError(t, db.Model(&entities.List{}).Where("id = ?", a.ID).
		UpdateColumn("updated_at", base.Add(4*time.Minute)).Error)

	page, err := repo.GetListsByDateUpdated(base, PageOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, page.Lists, 2)
	// Sorted by update time, not name
	assert.Equal(t, b.ID, page.Lists[0].ID)
	assert.Equal(t, a.ID, page.Lists[1].ID)
}

func TestGetListsByDateUpdated_Pagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	for i := 0; i < 7; i++ {
		_, _, err := repo.AddList(string(rune('a'+i)), "")
		require.NoError(t, err)
	}

	since := time.Now().Add(-time.Hour)
	seen := make(map[int64]bool)
	cursor := ""
	for {
		page, err := repo.GetListsByDateUpdated(since, PageOptions{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		for _, l := range page.Lists {
			assert.False(t, seen[l.ID])
			seen[l.ID] = true
		}
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}
	// 7 created plus the default list
	assert.Len(t, seen, 8)
}

func TestGetListEntriesByDateUpdated(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	list, _, err := repo.AddList("dogs", "")
	require.NoError(t, err)
	kept, _, err := repo.AddListEntry(list.ID, "en.wikipedia.org", "Beagle")
	require.NoError(t, err)
	gone, _, err := repo.AddListEntry(list.ID, "en.wikipedia.org", "Collie")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteListEntry(gone.ID))

	since := time.Now().Add(-time.Hour)
	page, err := repo.GetListEntriesByDateUpdated(since, PageOptions{Limit: 50})
	require.NoError(t, err)

	var ids []int64
	for _, e := range page.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, kept.ID)
	// Soft-deleted entries are part of the change feed
	assert.Contains(t, ids, gone.ID)
}

func TestGetListEntriesByDateUpdated_SkipsEntriesOfDeletedLists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	kept, _, err := repo.AddList("kept", "")
	require.NoError(t, err)
	doomed, _, err := repo.AddList("doomed", "")
	require.NoError(t, err)

	keptEntry, _, err := repo.AddListEntry(kept.ID, "en.wikipedia.org", "Beagle")
	require.NoError(t, err)
	doomedEntry, _, err := repo.AddListEntry(doomed.ID, "en.wikipedia.org", "Collie")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteList(doomed.ID))

	since := time.Now().Add(-time.Hour)
	page, err := repo.GetListEntriesByDateUpdated(since, PageOptions{Limit: 50})
	require.NoError(t, err)

	var ids []int64
	for _, e := range page.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, keptEntry.ID)
	// The list deletion is surfaced by the lists feed instead
	assert.NotContains(t, ids, doomedEntry.ID)
}

func TestGetListEntriesByDateUpdated_ScopedToOwner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	mine, _, err := repo.AddList("mine", "")
	require.NoError(t, err)
	mineEntry, _, err := repo.AddListEntry(mine.ID, "en.wikipedia.org", "Beagle")
	require.NoError(t, err)

	other := setUpOwner(t, db, 2)
	theirs, _, err := other.AddList("theirs", "")
	require.NoError(t, err)
	theirsEntry, _, err := other.AddListEntry(theirs.ID, "en.wikipedia.org", "Collie")
	require.NoError(t, err)

	since := time.Now().Add(-time.Hour)
	page, err := repo.GetListEntriesByDateUpdated(since, PageOptions{Limit: 50})
	require.NoError(t, err)

	var ids []int64
	for _, e := range page.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, mineEntry.ID)
	assert.NotContains(t, ids, theirsEntry.ID)
}

func TestDeletedExpiry(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db, nil, 1, newFakeProjects(), Options{
		DeletedRetention: 48 * time.Hour,
	})
	horizon := repo.DeletedExpiry()
	expected := time.Now().Add(-48 * time.Hour)
	assert.WithinDuration(t, expected, horizon, time.Minute)
}
