package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/database/projects"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

// Stores bundles what controllers need to build an owner-bound repository
// per request. Repositories are cheap structs; one is constructed for each
// request from the authenticated owner.
type Stores struct {
	DB        *gorm.DB
	Reader    *gorm.DB
	Projects  *projects.Repository
	Limits    readinglists.Limits
	Retention time.Duration
}

func (s Stores) repoFor(owner int64) *readinglists.Repository {
	return readinglists.NewRepository(s.DB, s.Reader, owner, s.Projects, readinglists.Options{
		Limits:           s.Limits,
		DeletedRetention: s.Retention,
	})
}

type ListsController struct {
	stores Stores
}

func NewListsController(stores Stores) *ListsController {
	return &ListsController{stores: stores}
}

// Setup creates the owner's default list
// POST /api/readinglists/setup
func (lc *ListsController) Setup(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	list, err := lc.stores.repoFor(owner).SetupForUser()
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// Teardown removes everything the owner has, irreversibly
// POST /api/readinglists/teardown
func (lc *ListsController) Teardown(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	if err := lc.stores.repoFor(owner).TeardownForUser(); err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "torn down"})
}

// GetAllLists returns one page of the owner's lists
// GET /api/lists?sort=&dir=&limit=&next=
func (lc *ListsController) GetAllLists(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}
	page, err := lc.stores.repoFor(owner).GetAllLists(opts)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateList creates a list, or merges into the same-named one
// POST /api/lists
func (lc *ListsController) CreateList(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}
	list, merged, err := lc.stores.repoFor(owner).AddList(req.Name, req.Description)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"list": list, "merged": merged})
}

// UpdateList changes name and/or description; omitted fields are kept
// PUT /api/lists/:id
func (lc *ListsController) UpdateList(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid body")
		return
	}
	list, err := lc.stores.repoFor(owner).UpdateList(id, req.Name, req.Description)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteList soft-deletes a list
// DELETE /api/lists/:id
func (lc *ListsController) DeleteList(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := lc.stores.repoFor(owner).DeleteList(id); err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}

// GetListsByPage returns lists containing a page
// GET /api/lists/pages?project=&title=&limit=&next=
func (lc *ListsController) GetListsByPage(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	project, title := c.Query("project"), c.Query("title")
	if project == "" || title == "" {
		respondBadRequest(c, "project and title are required")
		return
	}
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}
	page, err := lc.stores.repoFor(owner).GetListsByPage(project, title, opts.Limit, opts.Cursor)
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetListOrder returns the manual list order
// GET /api/lists/order
func (lc *ListsController) GetListOrder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	order, err := lc.stores.repoFor(owner).GetListOrder()
	if err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// SetListOrder replaces the manual list order
// PUT /api/lists/order
func (lc *ListsController) SetListOrder(c *gin.Context) {
	owner, ok := ownerID(c)
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
	if err := lc.stores.repoFor(owner).SetListOrder(req.Order); err != nil {
		respondRepositoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": req.Order})
}
