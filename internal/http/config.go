package http

import (
	"github.com/kidopedia/kidopedia/internal/database"
	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Store    *database.Store
	Words    WordService
	Profiles ProfileService
	Sync     SyncService

	// Task queue (optional). Without it forced syncs run on a goroutine.
	TaskClient     *tasks.Client
	SyncDispatcher SyncDispatcher

	// Application info
	Version string

	Logger *logger.Logger
}
