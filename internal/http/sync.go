package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// SyncService exposes the dictionary sync orchestrator.
type SyncService interface {
	Status() (wordsync.Status, error)
	DownloadStatus() (wordsync.DownloadStatus, error)
	IsRunning() bool
	CancelSync() bool
	ForceSync(ctx context.Context, onProgress wordsync.ProgressFunc) error
}

// SyncDispatcher enqueues syncs on the task queue.
type SyncDispatcher interface {
	ScheduleSync(force bool) (string, error)
}

type SyncController struct {
	sync       SyncService
	dispatcher SyncDispatcher
	log        *logger.Logger
	// runCtx parents syncs started without a task queue.
	runCtx context.Context
}

func NewSyncController(sync SyncService, dispatcher SyncDispatcher, log *logger.Logger) *SyncController {
	return &SyncController{
		sync:       sync,
		dispatcher: dispatcher,
		log:        logger.OrNop(log),
		runCtx:     context.Background(),
	}
}

// WithContext sets the context that parents syncs started on a goroutine.
func (sc *SyncController) WithContext(ctx context.Context) *SyncController {
	sc.runCtx = ctx
	return sc
}

type SyncStatusResponse struct {
	wordsync.Status
	Download wordsync.DownloadStatus `json:"download"`
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	status, err := sc.sync.Status()
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}
	download, err := sc.sync.DownloadStatus()
	if err != nil {
		respondInternalError(c, err, "download status")
		return
	}
	c.JSON(http.StatusOK, SyncStatusResponse{Status: status, Download: download})
}

// Force handles POST /api/sync/force
// The sync restarts from the first page and runs in the background.
func (sc *SyncController) Force(c *gin.Context) {
	if sc.sync.IsRunning() {
		respondError(c, http.StatusConflict, wordsync.ErrSyncInProgress.Error())
		return
	}

	if sc.dispatcher != nil {
		id, err := sc.dispatcher.ScheduleSync(true)
		if err != nil {
			respondInternalError(c, err, "schedule sync")
			return
		}
		respondAccepted(c, "sync scheduled", gin.H{"task_id": id})
		return
	}

	go func() {
		err := sc.sync.ForceSync(sc.runCtx, nil)
		if err != nil && !errors.Is(err, wordsync.ErrSyncCancelled) {
			sc.log.Warn("forced sync failed", "error", err)
		}
	}()
	respondAccepted(c, "sync started", nil)
}

// Cancel handles POST /api/sync/cancel
func (sc *SyncController) Cancel(c *gin.Context) {
	if !sc.sync.CancelSync() {
		respondError(c, http.StatusConflict, "no sync is running")
		return
	}
	respondAccepted(c, "sync cancelling", nil)
}
