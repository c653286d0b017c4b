package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
)

// WatchReferenceRepository manages per-user watch lists.
type WatchReferenceRepository interface {
	// Add appends a video to a user's watch list. Returns false when the
	// video was already present.
	Add(ctx context.Context, userID, videoID uuid.UUID) (bool, error)

	// ListByUser returns a user's watch references in insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WatchReference, error)
}

type watchReferenceRepository struct {
	pool *pgxpool.Pool
}

// NewWatchReferenceRepository creates a new WatchReferenceRepository.
func NewWatchReferenceRepository(pool *pgxpool.Pool) WatchReferenceRepository {
	return &watchReferenceRepository{pool: pool}
}

func (r *watchReferenceRepository) Add(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO watch_references (user_id, video_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, userID, videoID)
	if err != nil {
		return false, db.WrapError(err, "add watch reference")
	}

	return tag.RowsAffected() == 1, nil
}

func (r *watchReferenceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WatchReference, error) {
	query := `
		SELECT user_id, video_id, position, added_at
		FROM watch_references
		WHERE user_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, db.WrapError(err, "list watch references")
	}
	defer rows.Close()

	var refs []*models.WatchReference
	for rows.Next() {
		ref := &models.WatchReference{}
		if err := rows.Scan(&ref.UserID, &ref.VideoID, &ref.Position, &ref.AddedAt); err != nil {
			return nil, db.WrapError(err, "scan watch reference")
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate watch references")
	}

	return refs, nil
}
