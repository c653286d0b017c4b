package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/service/metadata"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

func init() {
	_ = logger.Init("error", "")
}

// Mock video repository
type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) Create(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepo) GetBySourceURL(ctx context.Context, sourceURL string) (*models.Video, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, title, thumbnailURL, durationLabel string) error {
	args := m.Called(ctx, id, title, thumbnailURL, durationLabel)
	return args.Error(0)
}

func (m *mockVideoRepo) ClaimDispatch(ctx context.Context, id uuid.UUID, inflightLease time.Duration) (bool, error) {
	args := m.Called(ctx, id, inflightLease)
	return args.Bool(0), args.Error(1)
}

func (m *mockVideoRepo) MarkDispatchAcknowledged(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockVideoRepo) MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockVideoRepo) ReplaceTranscript(ctx context.Context, id uuid.UUID, track models.TranscriptTrack, entries []models.TranscriptEntry) error {
	args := m.Called(ctx, id, track, entries)
	return args.Error(0)
}

func (m *mockVideoRepo) SetSummary(ctx context.Context, id uuid.UUID, english, original string) error {
	args := m.Called(ctx, id, english, original)
	return args.Error(0)
}

func (m *mockVideoRepo) SetKeyConcepts(ctx context.Context, id uuid.UUID, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func (m *mockVideoRepo) SetDescription(ctx context.Context, id uuid.UUID, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func (m *mockVideoRepo) SetQuizItems(ctx context.Context, id uuid.UUID, items models.QuizItems) error {
	args := m.Called(ctx, id, items)
	return args.Error(0)
}

func (m *mockVideoRepo) SetChunkCount(ctx context.Context, id uuid.UUID, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

func (m *mockVideoRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock watch reference repository
type mockWatchRefRepo struct {
	mock.Mock
}

func (m *mockWatchRefRepo) Add(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWatchRefRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WatchReference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WatchReference), args.Error(1)
}

// Mock metadata provider
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Fetch(ctx context.Context, sourceURL string) (*metadata.Metadata, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metadata.Metadata), args.Error(1)
}

// Mock HTTP client
type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

// Mock task enqueuer
type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueDispatch(ctx context.Context, videoID uuid.UUID) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func (m *mockEnqueuer) EnqueueIndex(ctx context.Context, videoID uuid.UUID) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}
