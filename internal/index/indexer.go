package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/metrics"
	"github.com/adeelfeb/watchServer/internal/service/embedding"
	"github.com/adeelfeb/watchServer/internal/service/pinecone"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// Defaults applied when configuration leaves the knobs unset.
const (
	DefaultChunkSize      = 500
	DefaultTopK           = 2
	DefaultScoreThreshold = 0.6
)

// ErrEmptyTranscript is returned when there is nothing to index after
// normalization.
var ErrEmptyTranscript = errors.New("transcript is empty")

// VectorStore is the slice of the vector index the indexer and retriever
// depend on.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error
	Query(ctx context.Context, req pinecone.QueryRequest) ([]pinecone.Match, error)
	Delete(ctx context.Context, namespace string, ids []string) error
}

// ChunkCountStore is the slice of the video repository the indexer needs
// to track how many chunks the index holds per video.
type ChunkCountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	SetChunkCount(ctx context.Context, id uuid.UUID, count int) error
}

// Indexer chunks transcripts, embeds the chunks and upserts them into
// the vector index.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Indexer struct {
	videos    ChunkCountStore
	embedder  embedding.Embedder
	store     VectorStore
	namespace string
	chunkSize int
}

// NewIndexer creates a new transcript indexer.
func NewIndexer(videos ChunkCountStore, embedder embedding.Embedder, store VectorStore, namespace string, chunkSize int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Indexer{
		videos:    videos,
		embedder:  embedder,
		store:     store,
		namespace: namespace,
		chunkSize: chunkSize,
	}
}

// ChunkID builds the deterministic vector id for chunk n of a video.
// Stable ids make re-indexing an overwrite instead of an append.
func ChunkID(videoID uuid.UUID, n int) string {
	return fmt.Sprintf("%s_chunk_%d", videoID, n)
}

// Index cleans and chunks text, embeds all chunks in one batch and
// upserts them under deterministic ids. When a re-index produces fewer
// chunks than the previous run, the orphaned higher-index chunks are
// deleted so retrieval never serves stale content. An embedding failure
// fails the whole operation; a transcript is never partially indexed.
func (ix *Indexer) Index(ctx context.Context, videoID uuid.UUID, text string) error {
	cleaned := CleanText(text)
	if cleaned == "" {
		metrics.IndexOperations.WithLabelValues("empty").Inc()
		return ErrEmptyTranscript
	}

	chunks := SplitIntoChunks(cleaned, ix.chunkSize)

	vectors, err := ix.embedChunks(ctx, videoID, chunks)
	if err != nil {
		metrics.IndexOperations.WithLabelValues("error").Inc()
		return err
	}

	// Read the previous chunk count before writing so a shrinking
	// transcript can be detected.
	video, err := ix.videos.GetByID(ctx, videoID)
	if err != nil {
		metrics.IndexOperations.WithLabelValues("error").Inc()
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	previousCount := video.ChunkCount

	if err := ix.store.Upsert(ctx, ix.namespace, vectors); err != nil {
		metrics.IndexOperations.WithLabelValues("error").Inc()
		return fmt.Errorf("upsert %d chunks for video %s: %w", len(vectors), videoID, err)
	}

	if previousCount > len(chunks) {
		orphans := make([]string, 0, previousCount-len(chunks))
		for n := len(chunks); n < previousCount; n++ {
			orphans = append(orphans, ChunkID(videoID, n))
		}
		if err := ix.store.Delete(ctx, ix.namespace, orphans); err != nil {
			metrics.IndexOperations.WithLabelValues("error").Inc()
			return fmt.Errorf("delete %d orphaned chunks for video %s: %w", len(orphans), videoID, err)
		}
		logger.Log.Info("Deleted orphaned chunks after shrinking re-index",
			zap.String("videoId", videoID.String()),
			zap.Int("previousCount", previousCount),
			zap.Int("newCount", len(chunks)),
		)
	}

	if err := ix.videos.SetChunkCount(ctx, videoID, len(chunks)); err != nil {
		metrics.IndexOperations.WithLabelValues("error").Inc()
		return fmt.Errorf("record chunk count for video %s: %w", videoID, err)
	}

	metrics.IndexOperations.WithLabelValues("ok").Inc()
	metrics.ChunksIndexed.Add(float64(len(chunks)))

	logger.Log.Info("Transcript indexed",
		zap.String("videoId", videoID.String()),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}

func (ix *Indexer) embedChunks(ctx context.Context, videoID uuid.UUID, chunks []string) ([]pinecone.Vector, error) {
	embeddings, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks for video %s: %w", len(chunks), videoID, err)
	}

	vectors := make([]pinecone.Vector, len(chunks))
	for n, chunk := range chunks {
		vectors[n] = pinecone.Vector{
			ID:     ChunkID(videoID, n),
			Values: embeddings[n],
			Metadata: map[string]any{
				"videoId": videoID.String(),
				"chunk":   chunk,
			},
		}
	}

	return vectors, nil
}
