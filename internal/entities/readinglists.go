package entities

import (
	"time"
)

// List is a named reading list owned by one central user.
//
// Deleted is an explicit flag rather than gorm.DeletedAt: change-sync
// queries must return soft-deleted rows, which gorm's scoped soft delete
// hides by default. Rows stay in place until the purge job removes them.
type List struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	OwnerID     int64     `gorm:"index:idx_lists_owner_name;index:idx_lists_owner_updated" json:"-"`
	Name        string    `gorm:"size:255;index:idx_lists_owner_name" json:"name"`
	Description string    `gorm:"size:767" json:"description,omitempty"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	// Size is the denormalized count of non-deleted entries.
	Size      int64     `gorm:"default:0" json:"size"`
	Deleted   bool      `gorm:"default:false;index" json:"deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index:idx_lists_owner_updated" json:"updated_at"`
}

// ListEntry is one saved page within a list.
//
// (ListID, ProjectID, Title) is unique regardless of the delete flag:
// re-adding a soft-deleted page revives the old row so the id stays stable
// for syncing clients.
type ListEntry struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ListID    int64     `gorm:"uniqueIndex:idx_entries_list_project_title" json:"list_id"`
	OwnerID   int64     `gorm:"index:idx_entries_owner_updated" json:"-"`
	ProjectID int64     `gorm:"uniqueIndex:idx_entries_list_project_title" json:"-"`
	Title     string    `gorm:"size:383;uniqueIndex:idx_entries_list_project_title" json:"title"`
	Deleted   bool      `gorm:"default:false;index" json:"deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index:idx_entries_owner_updated" json:"updated_at"`
}

// Project maps a wiki project identifier (domain or "@local") to an
// internal id referenced by list entries.
type Project struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Project string `gorm:"uniqueIndex;size:255" json:"project"`
}

// ListSortkey holds the manual ordering position of one list. Kept apart
// from the lists table so that reordering never touches created_at.
type ListSortkey struct {
	ListID   int64 `gorm:"primaryKey"`
	OwnerID  int64 `gorm:"index"`
	Position int64
}

// ListEntrySortkey holds the manual ordering position of one entry within
// its list.
type ListEntrySortkey struct {
	EntryID  int64 `gorm:"primaryKey"`
	ListID   int64 `gorm:"index"`
	Position int64
}

// User maps an API token to a central owner id. The token secret is stored
// bcrypt-hashed; the plaintext is shown once at creation.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:100" json:"username"`
	TokenHash string    `gorm:"size:100" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (List) TableName() string {
	return "reading_lists"
}

func (ListEntry) TableName() string {
	return "reading_list_entries"
}

func (Project) TableName() string {
	return "reading_list_projects"
}

func (ListSortkey) TableName() string {
	return "reading_list_sortkeys"
}

func (ListEntrySortkey) TableName() string {
	return "reading_list_entry_sortkeys"
}

func (User) TableName() string {
	return "users"
}
