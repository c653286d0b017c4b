package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// Dispatcher performs one enrichment dispatch attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, videoID uuid.UUID) (service.DispatchOutcome, error)
}

// Indexer writes a transcript into the vector index.
type Indexer interface {
	Index(ctx context.Context, videoID uuid.UUID, text string) error
}

// TaskHandler processes queued background tasks.
type TaskHandler struct {
	videos     repository.VideoRepository
	dispatcher Dispatcher
	indexer    Indexer
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(videos repository.VideoRepository, dispatcher Dispatcher, indexer Indexer) *TaskHandler {
	return &TaskHandler{
		videos:     videos,
		dispatcher: dispatcher,
		indexer:    indexer,
	}
}

// HandleDispatchTask processes an enrichment dispatch task. Only a failed
// send returns an error: asynq's retry schedule covers transient worker
// outages, and a record that is already claimed or acknowledged needs no
// further attempts.
func (h *TaskHandler) HandleDispatchTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalVideoTaskPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	outcome, err := h.dispatcher.Dispatch(ctx, payload.VideoID)

	logger.Log.Info("Dispatch task processed",
		zap.String("videoId", payload.VideoID.String()),
		zap.String("outcome", string(outcome)),
	)

	switch outcome {
	case service.DispatchAcknowledged, service.DispatchAlreadyAcknowledged, service.DispatchAlreadyInFlight:
		return nil
	default:
		if service.IsNotFound(err) {
			// The video was deleted after enqueueing; nothing to retry.
			return fmt.Errorf("video %s gone: %w", payload.VideoID, asynq.SkipRetry)
		}
		return fmt.Errorf("dispatch video %s: %w", payload.VideoID, err)
	}
}

// HandleIndexTask processes a transcript indexing task for the english
// track of the given video.
func (h *TaskHandler) HandleIndexTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalVideoTaskPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	video, err := h.videos.GetByID(ctx, payload.VideoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", payload.VideoID, err)
	}

	var parts []string
	for _, entry := range video.TranscriptEnglish {
		parts = append(parts, entry.Text)
	}
	text := strings.Join(parts, " ")

	if err := h.indexer.Index(ctx, payload.VideoID, text); err != nil {
		if errors.Is(err, index.ErrEmptyTranscript) {
			// Nothing indexable; retrying cannot change the outcome.
			logger.Log.Warn("Skipping index of empty transcript",
				zap.String("videoId", payload.VideoID.String()),
			)
			return nil
		}
		return fmt.Errorf("index video %s: %w", payload.VideoID, err)
	}

	logger.Log.Info("Index task processed",
		zap.String("videoId", payload.VideoID.String()),
	)
	return nil
}

// Server wraps the asynq server and task routing.
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
}

// NewServer creates an asynq server with the task handlers registered.
func NewServer(redisURL string, concurrency int, handler *TaskHandler) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			StrictPriority: false,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Log.Error("Task failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEnrichmentDispatch, handler.HandleDispatchTask)
	mux.HandleFunc(TypeTranscriptIndex, handler.HandleIndexTask)

	return &Server{
		asynqServer: srv,
		mux:         mux,
	}, nil
}

// Start starts task processing.
func (s *Server) Start() error {
	logger.Log.Info("Starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Shutdown gracefully stops the server, waiting for inflight tasks.
func (s *Server) Shutdown() {
	logger.Log.Info("Shutting down task processing server")
	s.asynqServer.Shutdown()
}
