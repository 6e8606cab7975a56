package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

type SyncController struct {
	stores Stores
}

func NewSyncController(stores Stores) *SyncController {
	return &SyncController{stores: stores}
}

// parseSince reads and bounds the since parameter. A since older than the
// retention horizon cannot be answered correctly because purge may have
// discarded the history, so it is rejected rather than answered partially.
func parseSince(c *gin.Context, repo *readinglists.Repository) (time.Time, bool) {
	raw := c.Query("since")
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondBadRequest(c, "since must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	if since.Before(repo.DeletedExpiry()) {
		respondRepositoryError(c, readinglists.NewError(readinglists.KindTooOld, raw))
		return time.Time{}, false
	}
	return since, true
}

// ListsChanges returns lists changed since a timestamp, deleted included
// GET /api/lists/changes?since=&sort=&dir=&limit=&next=
func (sc *SyncController) ListsChanges(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	repo := sc.stores.repoFor(owner)
	since, ok := parseSince(c, repo)
	if !ok {
		return
	}
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}
	if c.Query("sort") == "" {
		opts.SortBy = readinglists.SortByUpdated
	}
	page, err := repo.GetListsByDateUpdated(since, opts)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// EntriesChanges returns entries changed since a timestamp
// GET /api/entries/changes?since=&sort=&dir=&limit=&next=
func (sc *SyncController) EntriesChanges(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	repo := sc.stores.repoFor(owner)
	since, ok := parseSince(c, repo)
	if !ok {
		return
	}
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}
	if c.Query("sort") == "" {
		opts.SortBy = readinglists.SortByUpdated
	}
	page, err := repo.GetListEntriesByDateUpdated(since, opts)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
