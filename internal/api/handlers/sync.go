package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"catalogsync/internal/api/middleware"
	"catalogsync/internal/database"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/gin-gonic/gin"
)

// SyncStarter starts background runs; *importer.Orchestrator implements it.
type SyncStarter interface {
	Start(ctx context.Context, trigger string, stage importer.Stage) (<-chan *importer.RunResult, error)
}

// RunLister reads run history; *database.RunRepository implements it.
type RunLister interface {
	List(ctx context.Context, limit int) ([]models.SyncRun, error)
	Get(ctx context.Context, id string) (*models.SyncRun, error)
}

type SyncHandler struct {
	starter SyncStarter
	runs    RunLister
	logger  *logger.Logger
}

func NewSyncHandler(starter SyncStarter, runs RunLister, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		starter: starter,
		runs:    runs,
		logger:  logger,
	}
}

type triggerRequest struct {
	Stage string `json:"stage"`
}

// Trigger starts a sync in the background and answers 202 straight away.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	stage, err := importer.ParseStage(req.Stage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trigger := "api"
	if subject := c.GetString(middleware.SubjectKey); subject != "" {
		trigger = "api:" + subject
	}

	// The run outlives the request.
	done, err := h.starter.Start(context.WithoutCancel(c.Request.Context()), trigger, stage)
	if errors.Is(err, importer.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "A sync is already in progress"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to start sync: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sync"})
		return
	}

	go func() {
		result := <-done
		if result != nil && result.Err != nil {
			h.logger.Warn("Sync %s triggered by %s failed: %v", result.RunID, trigger, result.Err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Sync started",
		"stage":   stage,
		"trigger": trigger,
	})
}

func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > database.MaxListLimit {
		limit = database.MaxListLimit
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list sync runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *SyncHandler) GetRun(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sync run not found"})
			return
		}
		h.logger.Error("Failed to fetch sync run: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}
