// Package models contains the request and response DTOs of the HTTP API.
package models

import (
	"time"
)

// AddVideoRequest is the body of the video registration endpoint.
type AddVideoRequest struct {
	VideoURL string `json:"videoUrl" binding:"required"`
	// UserID, when present, also appends the video to that user's
	// watch list.
	UserID string `json:"userId,omitempty"`
}

// TranscriptEntryDTO is one timed transcript segment as delivered by the
// enrichment worker. Timestamp holds one offset or a [start, end] pair.
type TranscriptEntryDTO struct {
	Timestamp []float64 `json:"timestamp"`
	Text      string    `json:"text"`
}

// TranscriptPayload carries one or both transcript tracks.
type TranscriptPayload struct {
	English  []TranscriptEntryDTO `json:"english"`
	Original []TranscriptEntryDTO `json:"original"`
}

// SummaryPayload carries the worker's summary result. The worker sends
// the english summary as Summary_eng; english is accepted as a fallback
// alias for older worker versions.
type SummaryPayload struct {
	SummaryEng string `json:"Summary_eng"`
	English    string `json:"english"`
	Original   string `json:"original"`
}

// EnglishSummary resolves the english summary across both field names.
func (p *SummaryPayload) EnglishSummary() string {
	if p.SummaryEng != "" {
		return p.SummaryEng
	}
	return p.English
}

// KeyConceptsPayload carries the worker's key concepts markdown.
type KeyConceptsPayload struct {
	Concept string `json:"concept"`
}

// DescriptionPayload carries the worker's description text.
type DescriptionPayload struct {
	Description string `json:"description"`
}

// ShortQuestionDTO is an open-ended quiz item.
type ShortQuestionDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MCQDTO is a multiple-choice quiz item.
type MCQDTO struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizPayload carries the worker's quiz artifacts.
type QuizPayload struct {
	Questions []ShortQuestionDTO `json:"Questions"`
	MCQs      []MCQDTO           `json:"mcqs"`
}

// SearchRequest is the body of the semantic search endpoint.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	// VideoID restricts matches to one video's transcript.
	VideoID   string  `json:"videoId,omitempty"`
	TopK      int     `json:"topK,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// SearchMatch is one scored transcript chunk.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SearchMatch struct {
	VideoID string  `json:"videoId"`
	Chunk   string  `json:"chunk"`
	Score   float64 `json:"score"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Matches []SearchMatch `json:"matches"`
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}
