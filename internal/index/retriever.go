package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/adeelfeb/watchServer/internal/metrics"
	"github.com/adeelfeb/watchServer/internal/service/embedding"
	"github.com/adeelfeb/watchServer/internal/service/pinecone"
)

// Match is one retrieval result: a transcript chunk and its similarity
// score against the query.
type Match struct {
	VideoID string  `json:"videoId"`
	Chunk   string  `json:"chunk"`
	Score   float64 `json:"score"`
}

// QueryOptions tune a single retrieval call. Zero values fall back to
// the retriever defaults.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type QueryOptions struct {
	TopK      int
	Threshold float64
	// VideoID restricts matches to one video when set.
	VideoID *uuid.UUID
}

// Retriever answers semantic queries against the transcript index.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Retriever struct {
	embedder  embedding.Embedder
	store     VectorStore
	namespace string
	topK      int
	threshold float64
}

// NewRetriever creates a retriever with the given defaults.
func NewRetriever(embedder embedding.Embedder, store VectorStore, namespace string, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}

	return &Retriever{
		embedder:  embedder,
		store:     store,
		namespace: namespace,
		topK:      topK,
		threshold: threshold,
	}
}

// Query cleans the text with the same rules as indexing, embeds it and
// returns the matches at or above the score threshold, ordered by
// descending score and capped at topK. A query that is empty after
// cleaning returns no matches without touching any service; an empty
// result set is a normal outcome, not an error.
func (r *Retriever) Query(ctx context.Context, text string, opts QueryOptions) ([]Match, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = r.topK
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = r.threshold
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		metrics.SearchQueries.WithLabelValues("empty_query").Inc()
		return []Match{}, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{cleaned})
	if err != nil {
		metrics.SearchQueries.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter map[string]any
	if opts.VideoID != nil {
		filter = map[string]any{"videoId": opts.VideoID.String()}
	}

	found, err := r.store.Query(ctx, pinecone.QueryRequest{
		Vector:    vectors[0],
		TopK:      topK,
		Namespace: r.namespace,
		Filter:    filter,
	})
	if err != nil {
		metrics.SearchQueries.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		if m.Score < threshold {
			continue
		}
		matches = append(matches, Match{
			VideoID: metadataString(m.Metadata, "videoId"),
			Chunk:   metadataString(m.Metadata, "chunk"),
			Score:   m.Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	metrics.SearchQueries.WithLabelValues("ok").Inc()
	return matches, nil
}

func metadataString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
