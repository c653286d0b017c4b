package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// TaskEnqueuer schedules background work for a video.
type TaskEnqueuer interface {
	EnqueueDispatch(ctx context.Context, videoID uuid.UUID) error
	EnqueueIndex(ctx context.Context, videoID uuid.UUID) error
}

// EnrichmentCallbackHandler applies artifacts delivered by the enrichment
// worker. Each artifact is applied independently with replace semantics,
// so redelivery of the same callback is harmless.
type EnrichmentCallbackHandler struct {
	videos repository.VideoRepository
	tasks  TaskEnqueuer
}

// NewEnrichmentCallbackHandler creates a new EnrichmentCallbackHandler.
func NewEnrichmentCallbackHandler(videos repository.VideoRepository, tasks TaskEnqueuer) *EnrichmentCallbackHandler {
	return &EnrichmentCallbackHandler{videos: videos, tasks: tasks}
}

// ApplyTranscript replaces one language track of a video's transcript.
// Malformed entries are dropped rather than failing the batch. A
// non-empty english track schedules a re-index of the transcript.
func (h *EnrichmentCallbackHandler) ApplyTranscript(ctx context.Context, videoID uuid.UUID, track models.TranscriptTrack, entries []models.TranscriptEntry) error {
	valid := make([]models.TranscriptEntry, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		if transcriptEntryValid(e) {
			valid = append(valid, e)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Log.Warn("Dropped malformed transcript entries",
			zap.String("videoId", videoID.String()),
			zap.String("track", string(track)),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(valid)),
		)
	}

	if err := h.videos.ReplaceTranscript(ctx, videoID, track, valid); err != nil {
		return h.wrapStoreErr(err, videoID)
	}

	logger.Log.Info("Transcript track replaced",
		zap.String("videoId", videoID.String()),
		zap.String("track", string(track)),
		zap.Int("entries", len(valid)),
	)

	if track == models.TrackEnglish && len(valid) > 0 {
		// Indexing runs in the background worker. A full queue or a
		// redis outage must not turn the worker's delivery into an error.
		if err := h.tasks.EnqueueIndex(ctx, videoID); err != nil {
			logger.Log.Error("Failed to enqueue transcript indexing",
				zap.Error(err),
				zap.String("videoId", videoID.String()),
			)
		}
	}

	return nil
}

// ApplySummary updates the summary fields. Empty fields in the payload
// leave the stored value untouched.
func (h *EnrichmentCallbackHandler) ApplySummary(ctx context.Context, videoID uuid.UUID, english, original string) error {
	if err := h.videos.SetSummary(ctx, videoID, english, original); err != nil {
		return h.wrapStoreErr(err, videoID)
	}
	logger.Log.Info("Summary updated", zap.String("videoId", videoID.String()))
	return nil
}

// ApplyKeyConcepts replaces the key concepts text.
func (h *EnrichmentCallbackHandler) ApplyKeyConcepts(ctx context.Context, videoID uuid.UUID, text string) error {
	if err := h.videos.SetKeyConcepts(ctx, videoID, text); err != nil {
		return h.wrapStoreErr(err, videoID)
	}
	logger.Log.Info("Key concepts updated", zap.String("videoId", videoID.String()))
	return nil
}

// ApplyDescription replaces the description text.
func (h *EnrichmentCallbackHandler) ApplyDescription(ctx context.Context, videoID uuid.UUID, text string) error {
	if err := h.videos.SetDescription(ctx, videoID, text); err != nil {
		return h.wrapStoreErr(err, videoID)
	}
	logger.Log.Info("Description updated", zap.String("videoId", videoID.String()))
	return nil
}

// ApplyQuizItems replaces the quiz artifacts.
func (h *EnrichmentCallbackHandler) ApplyQuizItems(ctx context.Context, videoID uuid.UUID, items models.QuizItems) error {
	if err := h.videos.SetQuizItems(ctx, videoID, items); err != nil {
		return h.wrapStoreErr(err, videoID)
	}
	logger.Log.Info("Quiz items updated",
		zap.String("videoId", videoID.String()),
		zap.Int("shortQuestions", len(items.ShortQuestions)),
		zap.Int("mcqs", len(items.MCQs)),
	)
	return nil
}

func (h *EnrichmentCallbackHandler) wrapStoreErr(err error, videoID uuid.UUID) error {
	if db.IsNotFound(err) {
		return &NotFoundError{Resource: "video", ID: videoID.String()}
	}
	return &StorageError{Cause: err}
}

// transcriptEntryValid checks the shape delivered by the worker: entries
// carry non-empty text and either a single offset or a [start, end] pair.
func transcriptEntryValid(e models.TranscriptEntry) bool {
	if e.Text == "" {
		return false
	}
	if len(e.Timestamps) < 1 || len(e.Timestamps) > 2 {
		return false
	}
	for _, ts := range e.Timestamps {
		if ts < 0 {
			return false
		}
	}
	return true
}
