package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/db/testutil"
)

func TestWatchReferenceRepository(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videoRepo := NewVideoRepository(td.Pool)
	watchRepo := NewWatchReferenceRepository(td.Pool)
	ctx := context.Background()

	newVideo := func(t *testing.T, suffix string) *models.Video {
		t.Helper()
		video := models.NewVideo("https://www.youtube.com/watch?v=watch0" + suffix)
		require.NoError(t, videoRepo.Create(ctx, video))
		return video
	}

	t.Run("re-adding the same video is not appended twice", func(t *testing.T) {
		td.TruncateTables(t)

		userID := uuid.New()
		video := newVideo(t, "00001")

		added, err := watchRepo.Add(ctx, userID, video.ID)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = watchRepo.Add(ctx, userID, video.ID)
		require.NoError(t, err)
		assert.False(t, added)

		refs, err := watchRepo.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, refs, 1)
	})

	t.Run("lists references in insertion order per user", func(t *testing.T) {
		td.TruncateTables(t)

		userID := uuid.New()
		otherUser := uuid.New()
		first := newVideo(t, "00002")
		second := newVideo(t, "00003")

		_, err := watchRepo.Add(ctx, userID, first.ID)
		require.NoError(t, err)
		_, err = watchRepo.Add(ctx, userID, second.ID)
		require.NoError(t, err)
		_, err = watchRepo.Add(ctx, otherUser, second.ID)
		require.NoError(t, err)

		refs, err := watchRepo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, first.ID, refs[0].VideoID)
		assert.Equal(t, second.ID, refs[1].VideoID)
	})

	t.Run("empty watch list is an empty slice", func(t *testing.T) {
		td.TruncateTables(t)

		refs, err := watchRepo.ListByUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}
