package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/auth"
	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/database/projects"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
	http_controllers "github.com/wikimedia/readinglists/internal/http"
	"github.com/wikimedia/readinglists/internal/scheduler"
	"github.com/wikimedia/readinglists/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before cutting off in-flight requests
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting reading lists service v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Reads can go to a replica; without one they share the write handle
	readDB := db.DB
	var replica *database.Database
	if cfg.Database.ReadPath != "" && cfg.Database.ReadPath != cfg.Database.Path {
		replica, err = database.NewDatabase(cfg.Database.ReadPath)
		if err != nil {
			log.Fatalf("Failed to initialize read database: %v", err)
		}
		defer func() {
			if err := replica.Close(); err != nil {
				log.Printf("Error closing read database: %v", err)
			}
		}()
		readDB = replica.DB
		log.Printf("Reads routed to replica at %s", cfg.Database.ReadPath)
	}

	projectsRepo := projects.NewRepository(db.DB)

	stores := http_controllers.Stores{
		DB:       db.DB,
		Reader:   readDB,
		Projects: projectsRepo,
		Limits: readinglists.Limits{
			MaxListsPerUser:   cfg.Limits.MaxListsPerUser,
			MaxEntriesPerList: cfg.Limits.MaxEntriesPerList,
		},
		Retention: cfg.Purge.Retention(),
	}

	// Task queue and purge scheduler
	var taskClient *tasks.Client
	var purgeScheduler *scheduler.PurgeScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		maintenance := readinglists.NewMaintenanceRepository(db.DB, replicationWaiter())
		taskClient.Register(
			tasks.NewPurgeOldDeletedQueue(maintenance, cfg.Purge.Retention()),
			tasks.NewPurgeSortkeysQueue(maintenance),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		purgeScheduler = scheduler.NewPurgeScheduler(taskClient, cfg.Purge)
		if err := purgeScheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start purge scheduler: %v", err)
		}
	}

	// Authentication
	var authMiddleware *auth.Middleware
	if cfg.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token")
		authService := auth.NewService(db.DB, cfg.Auth)
		authMiddleware = auth.NewMiddleware(authService, cfg.Auth)
	} else {
		log.Printf("Authentication mode: none (requests bound to owner %d)", cfg.Auth.DevOwnerID)
		authMiddleware = auth.NewMiddleware(nil, cfg.Auth)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Stores:         stores,
		AuthMiddleware: authMiddleware,
		TaskClient:     taskClient,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if purgeScheduler != nil {
			purgeScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// replicationWaiter paces batched purges. SQLite has no replication lag
// to wait out, so the pause only yields the write lock between batches.
func replicationWaiter() readinglists.ReplicationWaiter {
	return func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}
}
