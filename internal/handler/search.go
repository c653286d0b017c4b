package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/models"
)

// Searcher answers semantic queries over indexed transcripts.
type Searcher interface {
	Query(ctx context.Context, text string, opts index.QueryOptions) ([]index.Match, error)
}

// SearchHandler handles semantic search requests.
type SearchHandler struct {
	retriever Searcher
}

// NewSearchHandler creates a new SearchHandler instance.
func NewSearchHandler(retriever Searcher) *SearchHandler {
	return &SearchHandler{retriever: retriever}
}

// Search returns the transcript chunks most similar to the query text.
// A query with no indexable words returns an empty match list, not an
// error.
func (h *SearchHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	opts := index.QueryOptions{
		TopK:      req.TopK,
		Threshold: req.Threshold,
	}
	if req.VideoID != "" {
		videoID, err := uuid.Parse(req.VideoID)
		if err != nil {
			badRequest(c, "videoId must be a valid UUID")
			return
		}
		opts.VideoID = &videoID
	}

	matches, err := h.retriever.Query(c.Request.Context(), req.Query, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SearchResponse{Matches: make([]models.SearchMatch, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, models.SearchMatch{
			VideoID: m.VideoID,
			Chunk:   m.Chunk,
			Score:   m.Score,
		})
	}

	c.JSON(http.StatusOK, resp)
}
