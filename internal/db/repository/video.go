// Package repository provides data access over the PostgreSQL pool.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
)

// VideoRepository defines operations for managing canonical video records.
// All artifact writes are field-level updates so that the dispatcher, the
// callback handler and user-facing edits never clobber each other.
type VideoRepository interface {
	// Create inserts a new video. A concurrent insert for the same source
	// URL surfaces as db.ErrDuplicateKey; callers re-read the winner.
	Create(ctx context.Context, video *models.Video) error

	// GetByID retrieves a single video by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// GetBySourceURL retrieves the canonical video for a source URL.
	GetBySourceURL(ctx context.Context, sourceURL string) (*models.Video, error)

	// UpdateMetadata sets the descriptive fields fetched from the
	// metadata provider.
	UpdateMetadata(ctx context.Context, id uuid.UUID, title, thumbnailURL, durationLabel string) error

	// ClaimDispatch atomically moves an eligible video to the inflight
	// state. It returns false when the video is already inflight within
	// its lease or already acknowledged, so no two claimants can both
	// send a dispatch request.
	ClaimDispatch(ctx context.Context, id uuid.UUID, inflightLease time.Duration) (bool, error)

	// MarkDispatchAcknowledged records a confirmed worker handshake.
	MarkDispatchAcknowledged(ctx context.Context, id uuid.UUID) error

	// MarkDispatchFailed records a failed attempt and returns the video
	// to the retry-eligible state.
	MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string) error

	// ReplaceTranscript replaces one language track in full.
	ReplaceTranscript(ctx context.Context, id uuid.UUID, track models.TranscriptTrack, entries []models.TranscriptEntry) error

	// SetSummary updates the summary fields that are non-empty.
	SetSummary(ctx context.Context, id uuid.UUID, english, original string) error

	// SetKeyConcepts replaces the key concepts text.
	SetKeyConcepts(ctx context.Context, id uuid.UUID, text string) error

	// SetDescription replaces the description text.
	SetDescription(ctx context.Context, id uuid.UUID, text string) error

	// SetQuizItems replaces the quiz artifacts.
	SetQuizItems(ctx context.Context, id uuid.UUID, items models.QuizItems) error

	// SetChunkCount records how many chunks the vector index holds for
	// this video.
	SetChunkCount(ctx context.Context, id uuid.UUID, count int) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `
	id, source_url, title, thumbnail_url, duration_label,
	dispatch_state, dispatch_attempts, dispatch_error,
	transcript_original, transcript_english,
	summary_english, summary_original, key_concepts, description, quiz_items,
	chunk_count, created_at, updated_at
`

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (
			id, source_url, title, thumbnail_url, duration_label,
			dispatch_state, summary_english, summary_original, description,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_url) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.ID,
		video.SourceURL,
		video.Title,
		video.ThumbnailURL,
		video.DurationLabel,
		video.DispatchState,
		video.SummaryEnglish,
		video.SummaryOriginal,
		video.Description,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err == pgx.ErrNoRows {
		// ON CONFLICT DO NOTHING returned no row: another insert won.
		return fmt.Errorf("create video: %w", db.ErrDuplicateKey)
	}
	if err != nil {
		return db.WrapError(err, "create video")
	}

	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	return r.scanVideo(r.pool.QueryRow(ctx, query, id), "get video by id")
}

func (r *videoRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE source_url = $1`
	return r.scanVideo(r.pool.QueryRow(ctx, query, sourceURL), "get video by source url")
}

func (r *videoRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, title, thumbnailURL, durationLabel string) error {
	query := `
		UPDATE videos
		SET title = $2, thumbnail_url = $3, duration_label = $4, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, "update video metadata", query, id, title, thumbnailURL, durationLabel)
}

func (r *videoRepository) ClaimDispatch(ctx context.Context, id uuid.UUID, inflightLease time.Duration) (bool, error) {
	// The state predicate is the mutual exclusion: only one claimant can
	// observe an eligible row and flip it to INFLIGHT. Inflight rows
	// become claimable again once their lease expires, so a crashed
	// worker cannot leave a record stuck forever.
	query := `
		UPDATE videos
		SET dispatch_state = $2, updated_at = now()
		WHERE id = $1
		  AND (dispatch_state = $3 OR dispatch_state = $4
		       OR (dispatch_state = $2 AND updated_at < now() - make_interval(secs => $5)))
	`

	tag, err := r.pool.Exec(ctx, query,
		id,
		models.DispatchStateInflight,
		models.DispatchStatePending,
		models.DispatchStateFailed,
		inflightLease.Seconds(),
	)
	if err != nil {
		return false, db.WrapError(err, "claim dispatch")
	}

	return tag.RowsAffected() == 1, nil
}

func (r *videoRepository) MarkDispatchAcknowledged(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE videos
		SET dispatch_state = $2, dispatch_error = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, "mark dispatch acknowledged", query, id, models.DispatchStateAcknowledged)
}

func (r *videoRepository) MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE videos
		SET dispatch_state = $2,
		    dispatch_attempts = dispatch_attempts + 1,
		    dispatch_error = $3,
		    updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, "mark dispatch failed", query, id, models.DispatchStateFailed, reason)
}

func (r *videoRepository) ReplaceTranscript(ctx context.Context, id uuid.UUID, track models.TranscriptTrack, entries []models.TranscriptEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	column := "transcript_original"
	if track == models.TrackEnglish {
		column = "transcript_english"
	}

	query := fmt.Sprintf(`UPDATE videos SET %s = $2, updated_at = now() WHERE id = $1`, column)
	return r.exec(ctx, "replace transcript", query, id, payload)
}

func (r *videoRepository) SetSummary(ctx context.Context, id uuid.UUID, english, original string) error {
	query := `
		UPDATE videos
		SET summary_english  = COALESCE(NULLIF($2, ''), summary_english),
		    summary_original = COALESCE(NULLIF($3, ''), summary_original),
		    updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, "set summary", query, id, english, original)
}

func (r *videoRepository) SetKeyConcepts(ctx context.Context, id uuid.UUID, text string) error {
	query := `UPDATE videos SET key_concepts = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, "set key concepts", query, id, text)
}

func (r *videoRepository) SetDescription(ctx context.Context, id uuid.UUID, text string) error {
	query := `UPDATE videos SET description = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, "set description", query, id, text)
}

func (r *videoRepository) SetQuizItems(ctx context.Context, id uuid.UUID, items models.QuizItems) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal quiz items: %w", err)
	}

	query := `UPDATE videos SET quiz_items = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, "set quiz items", query, id, payload)
}

func (r *videoRepository) SetChunkCount(ctx context.Context, id uuid.UUID, count int) error {
	query := `UPDATE videos SET chunk_count = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, "set chunk count", query, id, count)
}

func (r *videoRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// exec runs an UPDATE that must affect exactly one row and maps a zero
// row count to db.ErrNotFound.
func (r *videoRepository) exec(ctx context.Context, operation, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return db.WrapError(err, operation)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", operation, db.ErrNotFound)
	}
	return nil
}

func (r *videoRepository) scanVideo(row pgx.Row, operation string) (*models.Video, error) {
	video := &models.Video{}
	var transcriptOriginal, transcriptEnglish, quizItems []byte

	err := row.Scan(
		&video.ID,
		&video.SourceURL,
		&video.Title,
		&video.ThumbnailURL,
		&video.DurationLabel,
		&video.DispatchState,
		&video.DispatchAttempts,
		&video.DispatchError,
		&transcriptOriginal,
		&transcriptEnglish,
		&video.SummaryEnglish,
		&video.SummaryOriginal,
		&video.KeyConcepts,
		&video.Description,
		&quizItems,
		&video.ChunkCount,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, operation)
	}

	if len(transcriptOriginal) > 0 {
		if err := json.Unmarshal(transcriptOriginal, &video.TranscriptOriginal); err != nil {
			return nil, fmt.Errorf("%s: unmarshal original transcript: %w", operation, err)
		}
	}
	if len(transcriptEnglish) > 0 {
		if err := json.Unmarshal(transcriptEnglish, &video.TranscriptEnglish); err != nil {
			return nil, fmt.Errorf("%s: unmarshal english transcript: %w", operation, err)
		}
	}
	if len(quizItems) > 0 {
		if err := json.Unmarshal(quizItems, &video.QuizItems); err != nil {
			return nil, fmt.Errorf("%s: unmarshal quiz items: %w", operation, err)
		}
	}

	return video, nil
}
