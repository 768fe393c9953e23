package http

import (
	"context"

	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count. ctx parents background work started by
// handlers.
func NewRouter(ctx context.Context, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(cfg.Logger))
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Store, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Word lookup endpoints
	if cfg.Words != nil && cfg.Profiles != nil {
		words := NewWordsController(cfg.Words, cfg.Profiles)
		api.GET("/words/random", words.Random)
		api.GET("/words/popular", words.Popular)
		api.GET("/words/:word", words.GetWord)
		api.POST("/words/:word/view", words.RecordView)
		api.GET("/search", words.Search)
	}

	// Profile endpoints
	if cfg.Profiles != nil {
		profiles := NewProfilesController(cfg.Profiles)
		api.GET("/profiles", profiles.List)
		api.POST("/profiles", profiles.Create)
		api.GET("/profiles/:id", profiles.Get)
		api.PUT("/profiles/:id", profiles.Update)
		api.DELETE("/profiles/:id", profiles.Delete)
		api.POST("/profiles/:id/activate", profiles.Activate)
		api.POST("/profiles/:id/favorites/:word", profiles.ToggleFavorite)
		api.GET("/profiles/:id/favorites", profiles.Favorites)
		api.GET("/profiles/:id/streak", profiles.Streak)
		api.GET("/profiles/:id/achievements", profiles.Achievements)
		api.GET("/profiles/:id/recent-searches", profiles.RecentSearches)
		api.DELETE("/profiles/:id/recent-searches", profiles.ClearRecentSearches)
	}

	// Dictionary sync endpoints
	if cfg.Sync != nil {
		sync := NewSyncController(cfg.Sync, cfg.SyncDispatcher, cfg.Logger).WithContext(ctx)
		api.GET("/sync/status", sync.Status)
		api.POST("/sync/force", sync.Force)
		api.POST("/sync/cancel", sync.Cancel)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/run/:type", tasksController.RunTask)
	}

	return router
}
