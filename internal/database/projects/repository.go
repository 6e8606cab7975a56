// Package projects provides the project registry: the mapping from a wiki
// project identifier (a domain, or "@local") to the internal id referenced
// by list entries.
//
// # Interface Implementation
//
//	var _ readinglists.ProjectResolver = (*Repository)(nil)
package projects

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/database/readinglists"
	"github.com/wikimedia/readinglists/internal/entities"
)

// Repository handles all project registry operations.
type Repository struct {
	db *gorm.DB
	// strict disables lazy registration: unknown projects fail with
	// no-such-project instead of being created on first reference.
	strict bool
}

// NewRepository creates a projects repository that auto-registers unknown
// projects.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NewStrictRepository creates a projects repository that requires
// pre-registration.
func NewStrictRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, strict: true}
}

// Resolve returns the id of a registered project, or false when unknown.
func (r *Repository) Resolve(project string) (int64, bool, error) {
	var row entities.Project
	err := r.db.Where("project = ?", project).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.ID, true, nil
}

// ResolveOrCreate returns the id for a project identifier, registering it
// on first reference. In strict mode an unknown project fails with
// no-such-project.
func (r *Repository) ResolveOrCreate(project string) (int64, error) {
	id, ok, err := r.Resolve(project)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}
	if r.strict {
		return 0, readinglists.NewError(readinglists.KindNoSuchProject, project)
	}

	row := entities.Project{Project: project}
	if err := r.db.Create(&row).Error; err != nil {
		// A concurrent ResolveOrCreate may have won the insert race; the
		// unique index makes the retry read authoritative.
		if id, ok, rerr := r.Resolve(project); rerr == nil && ok {
			return id, nil
		}
		return 0, err
	}
	log.Printf("Registered project %q as id %d", project, row.ID)
	return row.ID, nil
}

// Rename changes a project identifier in place, keeping its id and thus
// every entry referencing it. A maintenance operation for domain moves.
func (r *Repository) Rename(from, to string) error {
	var row entities.Project
	err := r.db.Where("project = ?", from).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return readinglists.NewError(readinglists.KindNoSuchProject, from)
	}
	if err != nil {
		return err
	}
	return r.db.Model(&row).Update("project", to).Error
}
