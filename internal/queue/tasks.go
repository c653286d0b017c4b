// Package queue schedules and processes background work over asynq.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Task types
const (
	TypeEnrichmentDispatch = "enrichment:dispatch"
	TypeTranscriptIndex    = "transcript:index"
)

// VideoTaskPayload is the payload shared by both task types: the work is
// fully described by the video it targets.
type VideoTaskPayload struct {
	VideoID uuid.UUID `json:"video_id"`
}

// NewVideoTaskPayload creates a payload for a video-scoped task.
func NewVideoTaskPayload(videoID uuid.UUID) (*VideoTaskPayload, error) {
	if videoID == uuid.Nil {
		return nil, fmt.Errorf("video ID is required")
	}
	return &VideoTaskPayload{VideoID: videoID}, nil
}

// Marshal serializes the payload to JSON.
func (p *VideoTaskPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalVideoTaskPayload deserializes JSON to payload.
func UnmarshalVideoTaskPayload(data []byte) (*VideoTaskPayload, error) {
	var payload VideoTaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.VideoID == uuid.Nil {
		return nil, fmt.Errorf("payload missing video ID")
	}
	return &payload, nil
}
