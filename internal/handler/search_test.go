package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/service"
)

type stubSearcher struct {
	matches  []index.Match
	err      error
	lastOpts index.QueryOptions
}

func (s *stubSearcher) Query(ctx context.Context, text string, opts index.QueryOptions) ([]index.Match, error) {
	s.lastOpts = opts
	return s.matches, s.err
}

func searchRouter(searcher Searcher) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/search", NewSearchHandler(searcher).Search)
	return router
}

func TestSearchHandler_Search(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{
		matches: []index.Match{
			{VideoID: "abc", Chunk: "relevant passage", Score: 0.88},
			{VideoID: "def", Chunk: "another passage", Score: 0.71},
		},
	}
	router := searchRouter(searcher)

	rec := postJSON(t, router, "/api/v1/search", gin.H{"query": "what is covered"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []struct {
			VideoID string  `json:"videoId"`
			Chunk   string  `json:"chunk"`
			Score   float64 `json:"score"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "abc", resp.Matches[0].VideoID)
	assert.InDelta(t, 0.88, resp.Matches[0].Score, 1e-9)
}

func TestSearchHandler_Search_EmptyMatchesIsOK(t *testing.T) {
	t.Parallel()

	router := searchRouter(&stubSearcher{})

	rec := postJSON(t, router, "/api/v1/search", gin.H{"query": "the and of"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matches":[]}`, rec.Body.String())
}

func TestSearchHandler_Search_OptionsForwarded(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{}
	router := searchRouter(searcher)

	videoID := uuid.New()
	rec := postJSON(t, router, "/api/v1/search", gin.H{
		"query":     "question",
		"videoId":   videoID.String(),
		"topK":      5,
		"threshold": 0.4,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, searcher.lastOpts.TopK)
	assert.InDelta(t, 0.4, searcher.lastOpts.Threshold, 1e-9)
	require.NotNil(t, searcher.lastOpts.VideoID)
	assert.Equal(t, videoID, *searcher.lastOpts.VideoID)
}

func TestSearchHandler_Search_BadRequests(t *testing.T) {
	t.Parallel()

	router := searchRouter(&stubSearcher{})

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing query", body: gin.H{}},
		{name: "malformed videoId", body: gin.H{"query": "q", "videoId": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := postJSON(t, router, "/api/v1/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearchHandler_Search_UpstreamFailure(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{err: &service.ExternalServiceError{Service: "embedding"}}
	router := searchRouter(searcher)

	rec := postJSON(t, router, "/api/v1/search", gin.H{"query": "question"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
