package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchReference associates a user with a video in their ordered watch
// list. The (user, video) pair is unique; re-adding is a no-op.
type WatchReference struct {
	UserID   uuid.UUID `json:"userId"`
	VideoID  uuid.UUID `json:"videoId"`
	Position int64     `json:"position"`
	AddedAt  time.Time `json:"addedAt"`
}
