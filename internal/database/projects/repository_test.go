package projects

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wikimedia/readinglists/internal/database/readinglists"
	"github.com/wikimedia/readinglists/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	dbPath := "./test_projects_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Project{}))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestResolveOrCreate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)

	id, err := repo.ResolveOrCreate("en.wikipedia.org")
	require.NoError(t, err)
	assert.NotZero(t, id)

	// Same identifier resolves to the same id
	again, err := repo.ResolveOrCreate("en.wikipedia.org")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, err := repo.ResolveOrCreate("de.wikipedia.org")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestResolve(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)

	_, ok, err := repo.Resolve("en.wikipedia.org")
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := repo.ResolveOrCreate("en.wikipedia.org")
	require.NoError(t, err)

	got, ok, err := repo.Resolve("en.wikipedia.org")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestStrictRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStrictRepository(db)

	_, err := repo.ResolveOrCreate("en.wikipedia.org")
	assert.True(t, readinglists.HasKind(err, readinglists.KindNoSuchProject))

	// Pre-registered projects still resolve
	require.NoError(t, db.Create(&entities.Project{Project: "en.wikipedia.org"}).Error)
	_, err = repo.ResolveOrCreate("en.wikipedia.org")
	assert.NoError(t, err)
}

func TestRename(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	id, err := repo.ResolveOrCreate("old.wikipedia.org")
	require.NoError(t, err)

	require.NoError(t, repo.Rename("old.wikipedia.org", "new.wikipedia.org"))

	// The id survives the rename
	got, ok, err := repo.Resolve("new.wikipedia.org")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = repo.Resolve("old.wikipedia.org")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRename_Unknown(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	err := repo.Rename("missing.wikipedia.org", "anything")
	assert.True(t, readinglists.HasKind(err, readinglists.KindNoSuchProject))
}
