package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

func init() {
	_ = logger.Init("error", "")
}

type stubDispatcher struct {
	outcome service.DispatchOutcome
	err     error
	calls   []uuid.UUID
}

func (s *stubDispatcher) Dispatch(ctx context.Context, videoID uuid.UUID) (service.DispatchOutcome, error) {
	s.calls = append(s.calls, videoID)
	return s.outcome, s.err
}

type stubIndexer struct {
	err   error
	texts []string
}

func (s *stubIndexer) Index(ctx context.Context, videoID uuid.UUID, text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

// stubVideoRepo overrides only the method the handler reaches; the
// embedded interface panics on anything else.
type stubVideoRepo struct {
	repository.VideoRepository
	video *models.Video
	err   error
}

func (s *stubVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return s.video, s.err
}

func dispatchTask(t *testing.T, videoID uuid.UUID) *asynq.Task {
	t.Helper()
	payload, err := NewVideoTaskPayload(videoID)
	require.NoError(t, err)
	data, err := payload.Marshal()
	require.NoError(t, err)
	return asynq.NewTask(TypeEnrichmentDispatch, data)
}

func TestTaskHandler_HandleDispatchTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		outcome service.DispatchOutcome
		err     error
		wantErr bool
	}{
		{name: "acknowledged", outcome: service.DispatchAcknowledged},
		{name: "already acknowledged", outcome: service.DispatchAlreadyAcknowledged},
		{name: "already inflight", outcome: service.DispatchAlreadyInFlight},
		{
			name:    "failed is retried",
			outcome: service.DispatchFailed,
			err:     errors.New("worker unreachable"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dispatcher := &stubDispatcher{outcome: tt.outcome, err: tt.err}
			handler := NewTaskHandler(nil, dispatcher, nil)

			videoID := uuid.New()
			err := handler.HandleDispatchTask(context.Background(), dispatchTask(t, videoID))

			if tt.wantErr {
				require.Error(t, err)
				assert.NotErrorIs(t, err, asynq.SkipRetry)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []uuid.UUID{videoID}, dispatcher.calls)
		})
	}
}

func TestTaskHandler_HandleDispatchTask_GoneVideoSkipsRetry(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{
		outcome: service.DispatchFailed,
		err:     &service.NotFoundError{Resource: "video", ID: uuid.NewString()},
	}
	handler := NewTaskHandler(nil, dispatcher, nil)

	err := handler.HandleDispatchTask(context.Background(), dispatchTask(t, uuid.New()))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

// The gone-video skip must hold end to end, not just for the stub: the
// real dispatcher maps the repository's not-found onto the error the
// handler skips on.
func TestTaskHandler_HandleDispatchTask_GoneVideoThroughRealDispatcher(t *testing.T) {
	t.Parallel()

	repo := &stubVideoRepo{err: db.WrapError(pgx.ErrNoRows, "get video by id")}
	dispatcher := service.NewEnrichmentDispatcher(repo, nil, "http://worker:8001", "http://server:8000", time.Second, time.Minute)
	handler := NewTaskHandler(repo, dispatcher, nil)

	err := handler.HandleDispatchTask(context.Background(), dispatchTask(t, uuid.New()))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTaskHandler_HandleDispatchTask_MalformedPayload(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(nil, &stubDispatcher{}, nil)

	err := handler.HandleDispatchTask(context.Background(), asynq.NewTask(TypeEnrichmentDispatch, []byte("not json")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTaskHandler_HandleIndexTask(t *testing.T) {
	t.Parallel()

	video := models.NewVideo("https://www.youtube.com/watch?v=abc12345678")
	video.TranscriptEnglish = []models.TranscriptEntry{
		{Timestamps: []float64{0}, Text: "the quick brown fox"},
		{Timestamps: []float64{4.5}, Text: "jumps over the lazy dog"},
	}

	indexer := &stubIndexer{}
	handler := NewTaskHandler(&stubVideoRepo{video: video}, nil, indexer)

	task := asynq.NewTask(TypeTranscriptIndex, mustPayload(t, video.ID))
	require.NoError(t, handler.HandleIndexTask(context.Background(), task))

	// Entries are joined into one text before indexing.
	require.Len(t, indexer.texts, 1)
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", indexer.texts[0])
}

func TestTaskHandler_HandleIndexTask_EmptyTranscriptIsNotRetried(t *testing.T) {
	t.Parallel()

	video := models.NewVideo("https://www.youtube.com/watch?v=abc12345678")

	handler := NewTaskHandler(&stubVideoRepo{video: video}, nil, &stubIndexer{err: index.ErrEmptyTranscript})

	task := asynq.NewTask(TypeTranscriptIndex, mustPayload(t, video.ID))
	assert.NoError(t, handler.HandleIndexTask(context.Background(), task))
}

func TestTaskHandler_HandleIndexTask_IndexFailureIsRetried(t *testing.T) {
	t.Parallel()

	video := models.NewVideo("https://www.youtube.com/watch?v=abc12345678")
	video.TranscriptEnglish = []models.TranscriptEntry{{Timestamps: []float64{0}, Text: "hello"}}

	handler := NewTaskHandler(&stubVideoRepo{video: video}, nil, &stubIndexer{err: errors.New("embedding service down")})

	task := asynq.NewTask(TypeTranscriptIndex, mustPayload(t, video.ID))
	assert.Error(t, handler.HandleIndexTask(context.Background(), task))
}

func mustPayload(t *testing.T, videoID uuid.UUID) []byte {
	t.Helper()
	payload, err := NewVideoTaskPayload(videoID)
	require.NoError(t, err)
	data, err := payload.Marshal()
	require.NoError(t, err)
	return data
}
