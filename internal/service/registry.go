// Package service provides the business logic of the video registry.
package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/metrics"
	"github.com/adeelfeb/watchServer/internal/service/metadata"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// VideoRegistry resolves source URLs to canonical video records.
// Resolution is always find-or-create: a source URL maps to exactly one
// record regardless of how many users submit it.
type VideoRegistry struct {
	videos      repository.VideoRepository
	watchRefs   repository.WatchReferenceRepository
	metadata    metadata.Provider
	maxDuration time.Duration
}

// NewVideoRegistry creates a new VideoRegistry.
func NewVideoRegistry(
	videos repository.VideoRepository,
	watchRefs repository.WatchReferenceRepository,
	provider metadata.Provider,
	maxDuration time.Duration,
) *VideoRegistry {
	return &VideoRegistry{
		videos:      videos,
		watchRefs:   watchRefs,
		metadata:    provider,
		maxDuration: maxDuration,
	}
}

// Resolve returns the canonical video for sourceURL, creating it when no
// record exists yet. The returned bool reports whether a new record was
// created. Metadata failures never block creation: the record is created
// with placeholder fields instead.
func (vr *VideoRegistry) Resolve(ctx context.Context, sourceURL string) (*models.Video, bool, error) {
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, false, err
	}

	// Fast path: the URL is already registered.
	existing, err := vr.videos.GetBySourceURL(ctx, sourceURL)
	if err == nil {
		logger.Log.Debug("Video already registered",
			zap.String("videoId", existing.ID.String()),
			zap.String("sourceUrl", sourceURL),
		)
		vr.backfillMetadata(ctx, existing)
		metrics.VideosIngested.WithLabelValues("existing").Inc()
		return existing, false, nil
	}
	if !db.IsNotFound(err) {
		return nil, false, &StorageError{Cause: err}
	}

	video := models.NewVideo(sourceURL)

	meta, err := vr.metadata.Fetch(ctx, sourceURL)
	if err != nil {
		// Keep the placeholder fields and continue.
		logger.Log.Warn("Metadata fetch failed, using placeholders",
			zap.Error(err),
			zap.String("sourceUrl", sourceURL),
		)
	} else {
		if vr.maxDuration > 0 && meta.Duration > vr.maxDuration {
			metrics.VideosIngested.WithLabelValues("rejected").Inc()
			return nil, false, &DurationExceededError{Duration: meta.Duration, Limit: vr.maxDuration}
		}
		video.Title = meta.Title
		video.ThumbnailURL = meta.ThumbnailURL
		video.DurationLabel = meta.DurationLabel
	}

	if err := vr.videos.Create(ctx, video); err != nil {
		if db.IsDuplicateKey(err) {
			// Lost the insert race: return the winner.
			winner, readErr := vr.videos.GetBySourceURL(ctx, sourceURL)
			if readErr != nil {
				return nil, false, &StorageError{Cause: readErr}
			}
			metrics.VideosIngested.WithLabelValues("existing").Inc()
			return winner, false, nil
		}
		return nil, false, &StorageError{Cause: err}
	}

	logger.Log.Info("Video registered",
		zap.String("videoId", video.ID.String()),
		zap.String("sourceUrl", sourceURL),
		zap.String("title", video.Title),
	)
	metrics.VideosIngested.WithLabelValues("created").Inc()

	return video, true, nil
}

// backfillMetadata retries the metadata fetch for a record that was
// created with placeholders. Best effort: any failure keeps the
// placeholders and never blocks resolution.
func (vr *VideoRegistry) backfillMetadata(ctx context.Context, video *models.Video) {
	if !video.MetadataMissing() {
		return
	}

	meta, err := vr.metadata.Fetch(ctx, video.SourceURL)
	if err != nil {
		logger.Log.Debug("Metadata backfill failed",
			zap.Error(err),
			zap.String("videoId", video.ID.String()),
		)
		return
	}

	if err := vr.videos.UpdateMetadata(ctx, video.ID, meta.Title, meta.ThumbnailURL, meta.DurationLabel); err != nil {
		logger.Log.Warn("Failed to persist backfilled metadata",
			zap.Error(err),
			zap.String("videoId", video.ID.String()),
		)
		return
	}

	video.Title = meta.Title
	video.ThumbnailURL = meta.ThumbnailURL
	video.DurationLabel = meta.DurationLabel
}

// AddToWatchList appends a video to a user's watch list. Re-adding a
// video a user already has is a no-op, not an error.
func (vr *VideoRegistry) AddToWatchList(ctx context.Context, userID, videoID uuid.UUID) error {
	added, err := vr.watchRefs.Add(ctx, userID, videoID)
	if err != nil {
		return &StorageError{Cause: err}
	}
	if !added {
		logger.Log.Debug("Video already on watch list",
			zap.String("userId", userID.String()),
			zap.String("videoId", videoID.String()),
		)
	}
	return nil
}

// GetWatchList returns a user's watch references in insertion order.
func (vr *VideoRegistry) GetWatchList(ctx context.Context, userID uuid.UUID) ([]*models.WatchReference, error) {
	refs, err := vr.watchRefs.ListByUser(ctx, userID)
	if err != nil {
		return nil, &StorageError{Cause: err}
	}
	return refs, nil
}

// GetVideo retrieves a video by ID.
func (vr *VideoRegistry) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	video, err := vr.videos.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "video", ID: id.String()}
		}
		return nil, &StorageError{Cause: err}
	}
	return video, nil
}

func validateSourceURL(sourceURL string) error {
	if sourceURL == "" {
		return &ValidationError{Message: "videoUrl is required"}
	}
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Message: "videoUrl must be a valid http(s) URL"}
	}
	return nil
}
