package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dbmodels "github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/models"
)

// CallbackService applies enrichment artifacts to stored videos.
type CallbackService interface {
	ApplyTranscript(ctx context.Context, videoID uuid.UUID, track dbmodels.TranscriptTrack, entries []dbmodels.TranscriptEntry) error
	ApplySummary(ctx context.Context, videoID uuid.UUID, english, original string) error
	ApplyKeyConcepts(ctx context.Context, videoID uuid.UUID, text string) error
	ApplyDescription(ctx context.Context, videoID uuid.UUID, text string) error
	ApplyQuizItems(ctx context.Context, videoID uuid.UUID, items dbmodels.QuizItems) error
}

// CallbackHandler receives enrichment artifacts posted back by the
// external worker. Every endpoint is independently callable and safe to
// redeliver.
type CallbackHandler struct {
	callbacks CallbackService
}

// NewCallbackHandler creates a new CallbackHandler instance.
func NewCallbackHandler(callbacks CallbackService) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks}
}

// AddTranscript stores one or both transcript tracks for a video.
func (h *CallbackHandler) AddTranscript(c *gin.Context) {
	videoID, ok := pathVideoID(c)
	if !ok {
		return
	}

	var payload models.TranscriptPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if payload.English == nil && payload.Original == nil {
		badRequest(c, "at least one of english or original is required")
		return
	}

	ctx := c.Request.Context()
	if payload.Original != nil {
		if err := h.callbacks.ApplyTranscript(ctx, videoID, dbmodels.TrackOriginal, toEntries(payload.Original)); err != nil {
			respondError(c, err)
			return
		}
	}
	if payload.English != nil {
		if err := h.callbacks.ApplyTranscript(ctx, videoID, dbmodels.TrackEnglish, toEntries(payload.English)); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transcript updated successfully"})
}

// AddSummary stores the worker's summary.
func (h *CallbackHandler) AddSummary(c *gin.Context) {
	videoID, ok := pathVideoID(c)
	if !ok {
		return
	}

	var payload models.SummaryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.callbacks.ApplySummary(c.Request.Context(), videoID, payload.EnglishSummary(), payload.Original); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Summary updated successfully"})
}

// AddKeyConcepts stores the worker's key concepts markdown.
func (h *CallbackHandler) AddKeyConcepts(c *gin.Context) {
	videoID, ok := pathVideoID(c)
	if !ok {
		return
	}

	var payload models.KeyConceptsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.callbacks.ApplyKeyConcepts(c.Request.Context(), videoID, payload.Concept); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Keyconcept updated successfully"})
}

// AddQnas stores the worker's quiz artifacts.
func (h *CallbackHandler) AddQnas(c *gin.Context) {
	videoID, ok := pathVideoID(c)
	if !ok {
		return
	}

	var payload models.QuizPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	items := dbmodels.QuizItems{
		ShortQuestions: make([]dbmodels.ShortQuestion, 0, len(payload.Questions)),
		MCQs:           make([]dbmodels.MCQ, 0, len(payload.MCQs)),
	}
	for _, q := range payload.Questions {
		if q.Question == "" {
			continue
		}
		items.ShortQuestions = append(items.ShortQuestions, dbmodels.ShortQuestion{
			Question: q.Question,
			Answer:   q.Answer,
		})
	}
	for _, m := range payload.MCQs {
		if m.Question == "" || len(m.Options) == 0 || m.CorrectAnswer == "" {
			continue
		}
		items.MCQs = append(items.MCQs, dbmodels.MCQ{
			Question:      m.Question,
			Options:       m.Options,
			CorrectAnswer: m.CorrectAnswer,
		})
	}

	if err := h.callbacks.ApplyQuizItems(c.Request.Context(), videoID, items); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Q&A updated successfully"})
}

// AddDescription stores the worker's description text.
func (h *CallbackHandler) AddDescription(c *gin.Context) {
	videoID, ok := pathVideoID(c)
	if !ok {
		return
	}

	var payload models.DescriptionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.callbacks.ApplyDescription(c.Request.Context(), videoID, payload.Description); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Description updated successfully"})
}

func pathVideoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func toEntries(dtos []models.TranscriptEntryDTO) []dbmodels.TranscriptEntry {
	entries := make([]dbmodels.TranscriptEntry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, dbmodels.TranscriptEntry{
			Timestamps: d.Timestamp,
			Text:       d.Text,
		})
	}
	return entries
}
