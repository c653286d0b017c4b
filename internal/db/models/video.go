// Package models contains the persistent entities of the video registry.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Placeholder values applied when the metadata provider fails. Ingestion
// is never blocked on metadata availability.
const (
	DefaultTitle         = "Title Unavailable"
	DefaultDurationLabel = "Unknown"
	DefaultThumbnailURL  = "https://i.ytimg.com/img/no_thumbnail.jpg"

	DefaultSummary     = "NA"
	DefaultDescription = "No description available yet"
)

// DispatchState tracks whether the enrichment worker has been notified
// for a video.
type DispatchState string

// Dispatch state transitions: Pending -> Inflight -> Acknowledged or
// Failed; Failed -> Inflight on retry. Pending and Failed records are
// eligible for dispatch, Acknowledged is terminal.
const (
	DispatchStatePending      DispatchState = "PENDING"
	DispatchStateInflight     DispatchState = "INFLIGHT"
	DispatchStateAcknowledged DispatchState = "ACKNOWLEDGED"
	DispatchStateFailed       DispatchState = "FAILED"
)

// TranscriptEntry is one timed segment of a transcript track. Timestamps
// holds either a single offset or a [start, end] pair, in seconds.
type TranscriptEntry struct {
	Timestamps []float64 `json:"timestamp"`
	Text       string    `json:"text"`
}

// TranscriptTrack identifies one of the two language tracks of a transcript.
type TranscriptTrack string

const (
	TrackOriginal TranscriptTrack = "original"
	TrackEnglish  TranscriptTrack = "english"
)

// ShortQuestion is an open-ended quiz item.
type ShortQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MCQ is a multiple-choice quiz item.
type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizItems groups the quiz artifacts delivered by the enrichment worker.
type QuizItems struct {
	ShortQuestions []ShortQuestion `json:"shortQuestions"`
	MCQs           []MCQ           `json:"mcqs"`
}

// Video is the canonical record for one externally hosted video. SourceURL
// is unique; creation is always find-or-create.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Video struct {
	ID            uuid.UUID `json:"id"`
	SourceURL     string    `json:"sourceUrl"`
	Title         string    `json:"title"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	DurationLabel string    `json:"durationLabel"`

	DispatchState    DispatchState `json:"dispatchState"`
	DispatchAttempts int           `json:"dispatchAttempts"`
	DispatchError    *string       `json:"dispatchError,omitempty"`

	TranscriptOriginal []TranscriptEntry `json:"transcriptOriginal"`
	TranscriptEnglish  []TranscriptEntry `json:"transcriptEnglish"`

	SummaryEnglish  string    `json:"summaryEnglish"`
	SummaryOriginal string    `json:"summaryOriginal"`
	KeyConcepts     string    `json:"keyConcepts"`
	Description     string    `json:"description"`
	QuizItems       QuizItems `json:"quizItems"`

	// ChunkCount is the number of chunks currently in the vector index
	// for this video. Used to delete orphans when a re-index shrinks.
	ChunkCount int `json:"chunkCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DispatchAcknowledged reports whether the worker has confirmed receipt
// of a dispatch request for this video.
func (v *Video) DispatchAcknowledged() bool {
	return v.DispatchState == DispatchStateAcknowledged
}

// DispatchEligible reports whether a dispatch attempt may be made.
func (v *Video) DispatchEligible() bool {
	return v.DispatchState == DispatchStatePending || v.DispatchState == DispatchStateFailed
}

// MetadataMissing reports whether the record still carries the
// placeholder title from a failed metadata fetch.
func (v *Video) MetadataMissing() bool {
	return v.Title == DefaultTitle
}

// NewVideo constructs a video in its initial state for a source URL.
func NewVideo(sourceURL string) *Video {
	now := time.Now()
	return &Video{
		ID:              uuid.New(),
		SourceURL:       sourceURL,
		Title:           DefaultTitle,
		ThumbnailURL:    DefaultThumbnailURL,
		DurationLabel:   DefaultDurationLabel,
		DispatchState:   DispatchStatePending,
		SummaryEnglish:  DefaultSummary,
		SummaryOriginal: DefaultSummary,
		Description:     DefaultDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
