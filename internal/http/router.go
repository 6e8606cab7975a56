package http

import (
	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/auth"
	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/tasks"
)

// RouterConfig carries every dependency the router needs. Optional
// subsystems (tasks, auth middleware) may be nil.
type RouterConfig struct {
	Database       *database.Database
	Stores         Stores
	AuthMiddleware *auth.Middleware
	TaskClient     *tasks.Client
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	listsController := NewListsController(cfg.Stores)
	entriesController := NewEntriesController(cfg.Stores)
	syncController := NewSyncController(cfg.Stores)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Account lifecycle
	router.POST("/api/readinglists/setup", listsController.Setup)
	router.POST("/api/readinglists/teardown", listsController.Teardown)

	// Lists
	router.GET("/api/lists", listsController.GetAllLists)
	router.POST("/api/lists", listsController.CreateList)
	router.GET("/api/lists/pages", listsController.GetListsByPage)
	router.GET("/api/lists/order", listsController.GetListOrder)
	router.PUT("/api/lists/order", listsController.SetListOrder)
	router.GET("/api/lists/changes", syncController.ListsChanges)
	router.PUT("/api/lists/:id", listsController.UpdateList)
	router.DELETE("/api/lists/:id", listsController.DeleteList)

	// Entries
	router.POST("/api/lists/:id/entries", entriesController.CreateEntry)
	router.GET("/api/lists/:id/entries/order", entriesController.GetEntryOrder)
	router.PUT("/api/lists/:id/entries/order", entriesController.SetEntryOrder)
	router.GET("/api/entries", entriesController.GetEntries)
	router.GET("/api/entries/changes", syncController.EntriesChanges)
	router.DELETE("/api/entries/:id", entriesController.DeleteEntry)

	// Maintenance task endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
