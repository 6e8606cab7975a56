package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/wikimedia/readinglists/internal/tasks"
)

// TasksController handles maintenance task endpoints.
type TasksController struct {
	client *tasks.Client
}

// NewTasksController creates a new TasksController.
func NewTasksController(client *tasks.Client) *TasksController {
	return &TasksController{client: client}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "purge_old_deleted",
			Description: "Permanently remove rows soft-deleted before the retention window",
			Queue:       "purge_old_deleted",
		},
		{
			Type:        "purge_sortkeys",
			Description: "Remove manual ordering rows whose lists or entries are gone",
			Queue:       "purge_sortkeys",
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// RetentionDays overrides the configured retention for purge_old_deleted.
	RetentionDays int `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	var task backlite.Task
	switch taskType {
	case "purge_old_deleted":
		task = tasks.PurgeOldDeletedTask{RetentionDays: req.RetentionDays}

	case "purge_sortkeys":
		task = tasks.PurgeSortkeysTask{}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown task type: %s", taskType)})
		return
	}

	ids, err := tc.client.Add(task).Save()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}
