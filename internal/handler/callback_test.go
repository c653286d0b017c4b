package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbmodels "github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/service"
)

type appliedTranscript struct {
	track   dbmodels.TranscriptTrack
	entries []dbmodels.TranscriptEntry
}

type stubCallbacks struct {
	err         error
	transcripts []appliedTranscript
	summaryEng  string
	summaryOrig string
	concepts    string
	description string
	quiz        *dbmodels.QuizItems
}

func (s *stubCallbacks) ApplyTranscript(ctx context.Context, videoID uuid.UUID, track dbmodels.TranscriptTrack, entries []dbmodels.TranscriptEntry) error {
	if s.err != nil {
		return s.err
	}
	s.transcripts = append(s.transcripts, appliedTranscript{track: track, entries: entries})
	return nil
}

func (s *stubCallbacks) ApplySummary(ctx context.Context, videoID uuid.UUID, english, original string) error {
	if s.err != nil {
		return s.err
	}
	s.summaryEng, s.summaryOrig = english, original
	return nil
}

func (s *stubCallbacks) ApplyKeyConcepts(ctx context.Context, videoID uuid.UUID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.concepts = text
	return nil
}

func (s *stubCallbacks) ApplyDescription(ctx context.Context, videoID uuid.UUID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.description = text
	return nil
}

func (s *stubCallbacks) ApplyQuizItems(ctx context.Context, videoID uuid.UUID, items dbmodels.QuizItems) error {
	if s.err != nil {
		return s.err
	}
	s.quiz = &items
	return nil
}

func callbackRouter(callbacks CallbackService) *gin.Engine {
	router := gin.New()
	h := NewCallbackHandler(callbacks)
	router.POST("/api/v1/videos/:id/transcript", h.AddTranscript)
	router.POST("/api/v1/videos/:id/summary", h.AddSummary)
	router.POST("/api/v1/videos/:id/keyconcepts", h.AddKeyConcepts)
	router.POST("/api/v1/videos/:id/qnas", h.AddQnas)
	router.POST("/api/v1/videos/:id/description", h.AddDescription)
	return router
}

func TestCallbackHandler_AddTranscript_BothTracks(t *testing.T) {
	t.Parallel()

	callbacks := &stubCallbacks{}
	router := callbackRouter(callbacks)
	videoID := uuid.New()

	rec := postJSON(t, router, "/api/v1/videos/"+videoID.String()+"/transcript", gin.H{
		"english": []gin.H{
			{"timestamp": []float64{0}, "text": "hello"},
		},
		"original": []gin.H{
			{"timestamp": []float64{0, 2.5}, "text": "hallo"},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, callbacks.transcripts, 2)
	// The original track is applied before english.
	assert.Equal(t, dbmodels.TrackOriginal, callbacks.transcripts[0].track)
	assert.Equal(t, dbmodels.TrackEnglish, callbacks.transcripts[1].track)
	assert.Equal(t, "hello", callbacks.transcripts[1].entries[0].Text)
	assert.Equal(t, []float64{0, 2.5}, callbacks.transcripts[0].entries[0].Timestamps)
}

func TestCallbackHandler_AddTranscript_RequiresATrack(t *testing.T) {
	t.Parallel()

	router := callbackRouter(&stubCallbacks{})

	rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+"/transcript", gin.H{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackHandler_AddSummary_FieldAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    gin.H
		wantEng string
	}{
		{
			name:    "Summary_eng field",
			body:    gin.H{"Summary_eng": "the summary", "original": "zusammenfassung"},
			wantEng: "the summary",
		},
		{
			name:    "english fallback",
			body:    gin.H{"english": "the summary"},
			wantEng: "the summary",
		},
		{
			name:    "Summary_eng wins over english",
			body:    gin.H{"Summary_eng": "primary", "english": "fallback"},
			wantEng: "primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			callbacks := &stubCallbacks{}
			router := callbackRouter(callbacks)

			rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+"/summary", tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantEng, callbacks.summaryEng)
		})
	}
}

func TestCallbackHandler_AddKeyConcepts(t *testing.T) {
	t.Parallel()

	callbacks := &stubCallbacks{}
	router := callbackRouter(callbacks)

	rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+"/keyconcepts", gin.H{
		"concept": "## Key Concepts\n- one\n- two",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "## Key Concepts\n- one\n- two", callbacks.concepts)
}

func TestCallbackHandler_AddQnas_FiltersIncompleteItems(t *testing.T) {
	t.Parallel()

	callbacks := &stubCallbacks{}
	router := callbackRouter(callbacks)

	rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+"/qnas", gin.H{
		"Questions": []gin.H{
			{"question": "What is covered?", "answer": "The basics."},
			{"question": "", "answer": "orphan answer"},
		},
		"mcqs": []gin.H{
			{"question": "Which?", "options": []string{"a", "b"}, "correctAnswer": "a"},
			{"question": "No options", "options": []string{}, "correctAnswer": "a"},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, callbacks.quiz)
	assert.Len(t, callbacks.quiz.ShortQuestions, 1)
	assert.Len(t, callbacks.quiz.MCQs, 1)
}

func TestCallbackHandler_AddDescription(t *testing.T) {
	t.Parallel()

	callbacks := &stubCallbacks{}
	router := callbackRouter(callbacks)

	rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+"/description", gin.H{
		"description": "A tour of the standard library.",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A tour of the standard library.", callbacks.description)
}

func TestCallbackHandler_UnknownVideoReturns404(t *testing.T) {
	t.Parallel()

	callbacks := &stubCallbacks{err: &service.NotFoundError{Resource: "video", ID: uuid.NewString()}}
	router := callbackRouter(callbacks)

	paths := []struct {
		path string
		body gin.H
	}{
		{path: "/transcript", body: gin.H{"english": []gin.H{{"timestamp": []float64{0}, "text": "x"}}}},
		{path: "/summary", body: gin.H{"Summary_eng": "s"}},
		{path: "/keyconcepts", body: gin.H{"concept": "c"}},
		{path: "/qnas", body: gin.H{}},
		{path: "/description", body: gin.H{"description": "d"}},
	}

	for _, p := range paths {
		rec := postJSON(t, router, "/api/v1/videos/"+uuid.NewString()+p.path, p.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", p.path)
	}
}

func TestCallbackHandler_InvalidVideoID(t *testing.T) {
	t.Parallel()

	router := callbackRouter(&stubCallbacks{})

	rec := postJSON(t, router, "/api/v1/videos/not-a-uuid/summary", gin.H{"Summary_eng": "s"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
