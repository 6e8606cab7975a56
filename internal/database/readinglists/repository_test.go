package readinglists

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wikimedia/readinglists/internal/entities"
)

// fakeProjects is an in-memory ProjectResolver so repository tests do not
// depend on the projects package.
type fakeProjects struct {
	ids  map[string]int64
	next int64
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{ids: make(map[string]int64)}
}

func (f *fakeProjects) ResolveOrCreate(project string) (int64, error) {
	if id, ok := f.ids[project]; ok {
		return id, nil
	}
	f.next++
	f.ids[project] = f.next
	return f.next, nil
}

func (f *fakeProjects) Resolve(project string) (int64, bool, error) {
	id, ok := f.ids[project]
	return id, ok, nil
}

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	dbPath := "./test_readinglists_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Project{},
		&entities.List{},
		&entities.ListEntry{},
		&entities.ListSortkey{},
		&entities.ListEntrySortkey{},
	)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func newTestRepo(db *gorm.DB, ownerID int64) *Repository {
	return NewRepository(db, nil, ownerID, newFakeProjects(), Options{})
}

// setUpOwner creates a repository for the owner and runs setup.
func setUpOwner(t *testing.T, db *gorm.DB, ownerID int64) *Repository {
	t.Helper()
	repo := newTestRepo(db, ownerID)
	_, err := repo.SetupForUser()
	require.NoError(t, err)
	return repo
}

func TestSetupForUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := newTestRepo(db, 1)

	ok, err := repo.IsSetupForUser(false)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.SetupForUser()
	require.NoError(t, err)
	assert.NotZero(t, list.ID)
	assert.True(t, list.IsDefault)
	assert.Equal(t, int64(1), list.OwnerID)

	ok, err = repo.IsSetupForUser(false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetupForUser_AlreadySetUp(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)

	_, err := repo.SetupForUser()
	assert.True(t, HasKind(err, KindAlreadySetUp))
}

func TestSetupForUser_OwnersAreIndependent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	setUpOwner(t, db, 1)

	other := newTestRepo(db, 2)
	ok, err := other.IsSetupForUser(false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTeardownForUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := setUpOwner(t, db, 1)
	list, _, err := repo.AddList("dogs", "Woof!")
	require.NoError(t, err)
	_, _, err = repo.AddListEntry(list.ID, "en.wikipedia.org", "Dog")
	require.NoError(t, err)

	require.NoError(t, repo.TeardownForUser())

	var listCount, entryCount int64
	require.NoError(t, db.Model(&entities.List{}).Where("owner_id = ?", int64(1)).Count(&listCount).Error)
	require.NoError(t, db.Model(&entities.ListEntry{}).Where("owner_id = ?", int64(1)).Count(&entryCount).Error)
	assert.Zero(t, listCount)
	assert.Zero(t, entryCount)

	ok, err := repo.IsSetupForUser(false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTeardownForUser_NotSetUp(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := newTestRepo(db, 1)
	err := repo.TeardownForUser()
	assert.True(t, HasKind(err, KindNotSetUp))
}

func TestTeardownForUser_LeavesOtherOwnersAlone(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo1 := setUpOwner(t, db, 1)
	repo2 := setUpOwner(t, db, 2)
	_, _, err := repo2.AddList("keep me", "")
	require.NoError(t, err)

	require.NoError(t, repo1.TeardownForUser())

	ok, err := repo2.IsSetupForUser(false)
	require.NoError(t, err)
	assert.True(t, ok)

	page, err := repo2.GetAllLists(PageOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Lists, 2)
}

func TestSetupAfterTeardown_NewDefaultListID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := newTestRepo(db, 1)
	first, err := repo.SetupForUser()
	require.NoError(t, err)

	require.NoError(t, repo.TeardownForUser())

	second, err := repo.SetupForUser()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
