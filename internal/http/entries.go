package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type EntriesController struct {
	stores Stores
}

func NewEntriesController(stores Stores) *EntriesController {
	return &EntriesController{stores: stores}
}

// CreateEntry saves a page into a list (insert, revive or merge)
// POST /api/lists/:id/entries
func (ec *EntriesController) CreateEntry(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Project string `json:"project" binding:"required"`
		Title   string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "project and title are required")
		return
	}
	entry, merged, err := ec.stores.repoFor(owner).AddListEntry(listID, req.Project, req.Title)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"entry": entry, "merged": merged})
}

// DeleteEntry soft-deletes one entry
// DELETE /api/entries/:id
func (ec *EntriesController) DeleteEntry(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.stores.repoFor(owner).DeleteListEntry(id); err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

// GetEntries returns one page of entries across lists
// GET /api/entries?lists=1,2&sort=&dir=&limit=&next=
func (ec *EntriesController) GetEntries(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listIDs, ok := parseIDList(c, c.Query("lists"))
	if !ok {
		return
	}
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}
	page, err := ec.stores.repoFor(owner).GetListEntries(listIDs, opts)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetEntryOrder returns the manual entry order of a list
// GET /api/lists/:id/entries/order
func (ec *EntriesController) GetEntryOrder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := ec.stores.repoFor(owner).GetListEntryOrder(listID)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// SetEntryOrder replaces the manual entry order of a list
// PUT /api/lists/:id/entries/order
func (ec *EntriesController) SetEntryOrder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Order []int64 `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid body")
		return
	}
	if err := ec.stores.repoFor(owner).SetListEntryOrder(listID, req.Order); err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": req.Order})
}
