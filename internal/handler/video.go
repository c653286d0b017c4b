// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dbmodels "github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/models"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// VideoRegistry is the registry surface the handler needs.
type VideoRegistry interface {
	Resolve(ctx context.Context, sourceURL string) (*dbmodels.Video, bool, error)
	AddToWatchList(ctx context.Context, userID, videoID uuid.UUID) error
	GetWatchList(ctx context.Context, userID uuid.UUID) ([]*dbmodels.WatchReference, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error)
}

// VideoHandler handles video registration and retrieval requests.
type VideoHandler struct {
	registry VideoRegistry
	tasks    service.TaskEnqueuer
}

// NewVideoHandler creates a new VideoHandler instance.
func NewVideoHandler(registry VideoRegistry, tasks service.TaskEnqueuer) *VideoHandler {
	return &VideoHandler{
		registry: registry,
		tasks:    tasks,
	}
}

// AddVideo registers a video URL. Registration is find-or-create: a URL
// that is already known returns the existing record with 200 instead of
// 201. The response never waits on the enrichment worker.
func (h *VideoHandler) AddVideo(c *gin.Context) {
	var req models.AddVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	video, created, err := h.registry.Resolve(c.Request.Context(), req.VideoURL)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			badRequest(c, "userId must be a valid UUID")
			return
		}
		if err := h.registry.AddToWatchList(c.Request.Context(), userID, video.ID); err != nil {
			respondError(c, err)
			return
		}
	}

	h.enqueueDispatchIfNeeded(c, video)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, video)
}

// GetVideo returns one video record.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	video, ok := h.loadVideo(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, video)
}

// GetTranscript returns a video's transcript tracks. Fetching the
// transcript of a video the worker has not acknowledged yet re-enqueues
// dispatch, so user interest drives retries alongside the scheduled ones.
func (h *VideoHandler) GetTranscript(c *gin.Context) {
	video, ok := h.loadVideo(c)
	if !ok {
		return
	}

	h.enqueueDispatchIfNeeded(c, video)

	c.JSON(http.StatusOK, gin.H{
		"id":       video.ID,
		"english":  video.TranscriptEnglish,
		"original": video.TranscriptOriginal,
	})
}

// GetWatchList returns a user's watch references.
func (h *VideoHandler) GetWatchList(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID")
		return
	}

	refs, err := h.registry.GetWatchList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if refs == nil {
		refs = []*dbmodels.WatchReference{}
	}
	c.JSON(http.StatusOK, gin.H{"videos": refs})
}

func (h *VideoHandler) loadVideo(c *gin.Context) (*dbmodels.Video, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID")
		return nil, false
	}

	video, err := h.registry.GetVideo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return video, true
}

func (h *VideoHandler) enqueueDispatchIfNeeded(c *gin.Context, video *dbmodels.Video) {
	if video.DispatchAcknowledged() {
		return
	}
	if err := h.tasks.EnqueueDispatch(c.Request.Context(), video.ID); err != nil {
		// The record is durable; a lost enqueue surfaces again on the
		// next touch.
		logger.Log.Error("Failed to enqueue dispatch",
			zap.Error(err),
			zap.String("videoId", video.ID.String()),
		)
	}
}
