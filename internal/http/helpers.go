package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/auth"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error kind
	Details any    `json:"details,omitempty"` // offending ids, field names, limits
}

func statusForKind(kind readinglists.Kind) int {
	switch kind {
	case readinglists.KindUserRequired:
		return http.StatusUnauthorized
	case readinglists.KindNotOwnList, readinglists.KindNotOwnEntry:
		return http.StatusForbidden
	case readinglists.KindNoSuchList, readinglists.KindNoSuchEntry,
		readinglists.KindNoSuchProject, readinglists.KindListDeleted,
		readinglists.KindEntryDeleted:
		return http.StatusNotFound
	case readinglists.KindAlreadySetUp, readinglists.KindDuplicateList:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

// respondRepositoryError translates repository failures: taxonomy errors
// keep their kind and params, everything else is a 500 with the detail
// logged but not exposed.
func respondRepositoryError(c *gin.Context, err error) {
	var repoErr *readinglists.Error
	if errors.As(err, &repoErr) {
		c.JSON(statusForKind(repoErr.Kind), ErrorResponse{
			Error:   repoErr.Error(),
			Code:    string(repoErr.Kind),
			Details: repoErr.Params,
		})
		return
	}
	if errors.Is(err, readinglists.ErrBadCursor) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	log.Printf("Internal error (%s %s): %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// ownerID pulls the authenticated owner from the context, answering
// user-required when the route needs one and none is bound.
func ownerID(c *gin.Context) (int64, bool) {
	id, ok := auth.OwnerID(c)
	if !ok {
		repoErr := readinglists.NewError(readinglists.KindUserRequired)
		c.JSON(statusForKind(repoErr.Kind), ErrorResponse{
			Error: repoErr.Error(),
			Code:  string(repoErr.Kind),
		})
		return 0, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondBadRequest(c, name+" must be an integer id")
		return 0, false
	}
	return id, true
}

// parsePageOptions reads the shared pagination parameters sort, dir,
// limit and next.
func parsePageOptions(c *gin.Context) (readinglists.PageOptions, bool) {
	var opts readinglists.PageOptions

	by, err := readinglists.ParseSortBy(c.Query("sort"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return opts, false
	}
	dir, err := readinglists.ParseDirection(c.Query("dir"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return opts, false
	}
	opts.SortBy, opts.Dir = by, dir

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondBadRequest(c, "limit must be a positive integer")
			return opts, false
		}
		opts.Limit = limit
	}
	opts.Cursor = c.Query("next")
	return opts, true
}

// parseIDList splits a comma-separated id parameter.
func parseIDList(c *gin.Context, raw string) ([]int64, bool) {
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			respondBadRequest(c, "list ids must be integers")
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
