package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/tasks"
)

// HealthCheck reports one backing store. A disabled subsystem is healthy
// with a detail saying so, so dashboards need no special casing.
type HealthCheck struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Time    string                 `json:"time"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthController probes the list database and the task queue database.
// The queue being down degrades the service (purges stop) but reads and
// writes still work, so only a dead list database makes the probe fail.
type HealthController struct {
	db      *database.Database
	tasks   *tasks.Client
	version string
}

func NewHealthController(db *database.Database, taskClient *tasks.Client, version string) *HealthController {
	return &HealthController{
		db:      db,
		tasks:   taskClient,
		version: version,
	}
}

func (h *HealthController) checkDatabase() HealthCheck {
	if h.db == nil {
		return HealthCheck{Detail: "not configured"}
	}
	sqlDB, err := h.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return HealthCheck{Detail: err.Error()}
	}
	return HealthCheck{Healthy: true}
}

func (h *HealthController) checkTaskQueue() HealthCheck {
	if h.tasks == nil {
		return HealthCheck{Healthy: true, Detail: "disabled"}
	}
	if err := h.tasks.Ping(); err != nil {
		return HealthCheck{Detail: err.Error()}
	}
	return HealthCheck{Healthy: true}
}

func (h *HealthController) Status(c *gin.Context) {
	dbCheck := h.checkDatabase()
	queueCheck := h.checkTaskQueue()

	status := "healthy"
	statusCode := http.StatusOK
	switch {
	case !dbCheck.Healthy:
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case !queueCheck.Healthy:
		status = "degraded"
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Version: h.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Checks: map[string]HealthCheck{
			"database":   dbCheck,
			"task_queue": queueCheck,
		},
	})
}
