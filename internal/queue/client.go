package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/pkg/logger"
)

// Client wraps the asynq client for enqueueing tasks.
type Client struct {
	asynqClient *asynq.Client
	maxRetries  int
}

// NewClient creates a new queue client.
func NewClient(redisURL string, maxRetries int) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		maxRetries:  maxRetries,
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueDispatch schedules a dispatch attempt for a video. Redelivery is
// handled by asynq's retry machinery up to the configured limit.
func (c *Client) EnqueueDispatch(ctx context.Context, videoID uuid.UUID) error {
	return c.enqueue(ctx, TypeEnrichmentDispatch, videoID, 2*time.Minute)
}

// EnqueueIndex schedules a transcript re-index for a video.
func (c *Client) EnqueueIndex(ctx context.Context, videoID uuid.UUID) error {
	return c.enqueue(ctx, TypeTranscriptIndex, videoID, 5*time.Minute)
}

func (c *Client) enqueue(ctx context.Context, taskType string, videoID uuid.UUID, timeout time.Duration) error {
	payload, err := NewVideoTaskPayload(videoID)
	if err != nil {
		return fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(taskType, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(c.maxRetries),
		asynq.Timeout(timeout),
		asynq.Queue("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Log.Debug("Task enqueued",
		zap.String("type", taskType),
		zap.String("videoId", videoID.String()),
		zap.String("taskId", info.ID),
	)

	return nil
}
