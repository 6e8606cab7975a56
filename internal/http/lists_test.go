package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/readinglists/internal/auth"
	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/database/projects"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

func setupTestRouter(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	stores := Stores{
		DB:       db.DB,
		Projects: projects.NewRepository(db.DB),
		Limits:   readinglists.Limits{MaxListsPerUser: 100, MaxEntriesPerList: 100},
	}
	authMiddleware := auth.NewMiddleware(nil, config.Auth{Mode: config.AuthModeNone, DevOwnerID: 1})

	router := NewRouter(RouterConfig{
		Database:       db,
		Stores:         stores,
		AuthMiddleware: authMiddleware,
		Version:        "test",
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, cleanup
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestListsAPI_SetupAndCreate(t *testing.T) {
	router, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/readinglists/setup", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Repeated setup conflicts
	w = doJSON(t, router, "POST", "/api/readinglists/setup", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "already-set-up", errResp.Code)

	w = doJSON(t, router, "POST", "/api/lists", gin.H{"name": "dogs", "description": "Woof!"})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Same name merges and answers 200 instead of 201
	w = doJSON(t, router, "POST", "/api/lists", gin.H{"name": "dogs", "description": "Best friends"})
	assert.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Merged bool `json:"merged"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Merged)
}

func TestListsAPI_CreateRequiresSetup(t *testing.T) {
	router, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/lists", gin.H{"name": "dogs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "not-set-up", errResp.Code)
}

func TestListsAPI_GetAllPagination(t *testing.T) {
	router, cleanup := setupTestRouter(t)
	defer cleanup()

	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/readinglists/setup", nil).Code)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		w := doJSON(t, router, "POST", "/api/lists", gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, "GET", "/api/lists?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Lists []json.RawMessage `json:"lists"`
		Next  string            `json:"next"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Lists, 2)
	require.NotEmpty(t, page.Next)

	w = doJSON(t, router, "GET", "/api/lists?limit=2&next="+page.Next, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Garbage continuation tokens are a client error
	w = doJSON(t, router, "GET", "/api/lists?next=%21garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListsAPI_EntriesLifecycle(t *testing.T) {
	router, cleanup := setupTestRouter(t)
	defer cleanup()

	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/readinglists/setup", nil).Code)
	w := doJSON(t, router, "POST", "/api/lists", gin.H{"name": "dogs"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		List struct {
			ID int64 `json:"id"`
		} `json:"list"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	listID := created.List.ID

	w = doJSON(t, router, "POST", "/api/lists/"+itoa(listID)+"/entries",
		gin.H{"project": "en.wikipedia.org", "title": "Dog"})
	require.Equal(t, http.StatusCreated, w.Code)
	var entryResp struct {
		Entry struct {
			ID int64 `json:"id"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entryResp))

	// Re-adding the same page merges
	w = doJSON(t, router, "POST", "/api/lists/"+itoa(listID)+"/entries",
		gin.H{"project": "en.wikipedia.org", "title": "Dog"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/entries?lists="+itoa(listID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "DELETE", "/api/entries/"+itoa(entryResp.Entry.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting again names the state
	w = doJSON(t, router, "DELETE", "/api/entries/"+itoa(entryResp.Entry.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "entry-deleted", errResp.Code)
}

func TestSyncAPI_SinceValidation(t *testing.T) {
	router, cleanup := setupTestRouter(t)
	defer cleanup()

	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/readinglists/setup", nil).Code)

	w := doJSON(t, router, "GET", "/api/lists/changes?since=not-a-time", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Older than the retention horizon cannot be answered
	w = doJSON(t, router, "GET", "/api/lists/changes?since=2001-01-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "too-old", errResp.Code)

	since := url.QueryEscape(time.Now().Add(-time.Hour).UTC().Format(time.RFC3339))
	w = doJSON(t, router, "GET", "/api/lists/changes?since="+since, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
