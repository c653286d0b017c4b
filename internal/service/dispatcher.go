package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/models"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/metrics"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

// DispatchOutcome is the result of one dispatch attempt.
type DispatchOutcome string

const (
	// DispatchAcknowledged means the worker confirmed receipt this attempt.
	DispatchAcknowledged DispatchOutcome = "acknowledged"
	// DispatchAlreadyAcknowledged means an earlier attempt already succeeded.
	DispatchAlreadyAcknowledged DispatchOutcome = "already_acknowledged"
	// DispatchAlreadyInFlight means another claimant holds the inflight lease.
	DispatchAlreadyInFlight DispatchOutcome = "already_inflight"
	// DispatchFailed means the worker could not be reached or rejected the
	// request. The record stays retry-eligible.
	DispatchFailed DispatchOutcome = "failed"
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// dispatchRequest is the body POSTed to the enrichment worker.
type dispatchRequest struct {
	VideoID   string `json:"videoId"`
	VideoURL  string `json:"videoUrl"`
	ServerURL string `json:"serverUrl"`
}

// dispatchAck is the handshake body the worker must return.
type dispatchAck struct {
	Received bool   `json:"received"`
	Message  string `json:"message"`
}

// EnrichmentDispatcher notifies the external enrichment worker that a
// video needs processing. No two concurrent attempts can both send: the
// claim is a conditional state transition in the database.
type EnrichmentDispatcher struct {
	videos        repository.VideoRepository
	client        HTTPClient
	workerURL     string
	callbackURL   string
	timeout       time.Duration
	inflightLease time.Duration
}

// NewEnrichmentDispatcher creates a new EnrichmentDispatcher.
func NewEnrichmentDispatcher(
	videos repository.VideoRepository,
	client HTTPClient,
	workerURL, callbackURL string,
	timeout, inflightLease time.Duration,
) *EnrichmentDispatcher {
	if client == nil {
		client = &http.Client{}
	}
	return &EnrichmentDispatcher{
		videos:        videos,
		client:        client,
		workerURL:     strings.TrimRight(workerURL, "/"),
		callbackURL:   callbackURL,
		timeout:       timeout,
		inflightLease: inflightLease,
	}
}

// Dispatch attempts one notification for the given video. Records that
// are already acknowledged or currently inflight are left alone. A failed
// send records the reason and returns the record to the retry-eligible
// state.
func (d *EnrichmentDispatcher) Dispatch(ctx context.Context, videoID uuid.UUID) (DispatchOutcome, error) {
	video, err := d.videos.GetByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return DispatchFailed, &NotFoundError{Resource: "video", ID: videoID.String()}
		}
		return DispatchFailed, &StorageError{Cause: err}
	}

	if video.DispatchAcknowledged() {
		metrics.DispatchOutcomes.WithLabelValues(string(DispatchAlreadyAcknowledged)).Inc()
		return DispatchAlreadyAcknowledged, nil
	}
	if !video.DispatchEligible() && time.Since(video.UpdatedAt) < d.inflightLease {
		// Inflight within its lease: the claim would refuse anyway.
		// Expired leases fall through so the claim can take over.
		metrics.DispatchOutcomes.WithLabelValues(string(DispatchAlreadyInFlight)).Inc()
		return DispatchAlreadyInFlight, nil
	}

	claimed, err := d.videos.ClaimDispatch(ctx, videoID, d.inflightLease)
	if err != nil {
		return DispatchFailed, &StorageError{Cause: err}
	}
	if !claimed {
		// Someone else holds the claim, or it was acknowledged between
		// the read and the claim.
		current, readErr := d.videos.GetByID(ctx, videoID)
		if readErr == nil && current.DispatchAcknowledged() {
			metrics.DispatchOutcomes.WithLabelValues(string(DispatchAlreadyAcknowledged)).Inc()
			return DispatchAlreadyAcknowledged, nil
		}
		metrics.DispatchOutcomes.WithLabelValues(string(DispatchAlreadyInFlight)).Inc()
		return DispatchAlreadyInFlight, nil
	}

	if err := d.send(ctx, video); err != nil {
		logger.Log.Warn("Dispatch attempt failed",
			zap.Error(err),
			zap.String("videoId", videoID.String()),
			zap.Int("attempts", video.DispatchAttempts+1),
		)
		if markErr := d.videos.MarkDispatchFailed(ctx, videoID, err.Error()); markErr != nil {
			logger.Log.Error("Failed to record dispatch failure",
				zap.Error(markErr),
				zap.String("videoId", videoID.String()),
			)
		}
		metrics.DispatchOutcomes.WithLabelValues(string(DispatchFailed)).Inc()
		return DispatchFailed, &ExternalServiceError{Service: "enrichment worker", Cause: err}
	}

	if err := d.videos.MarkDispatchAcknowledged(ctx, videoID); err != nil {
		return DispatchFailed, &StorageError{Cause: err}
	}

	logger.Log.Info("Dispatch acknowledged",
		zap.String("videoId", videoID.String()),
		zap.String("sourceUrl", video.SourceURL),
	)
	metrics.DispatchOutcomes.WithLabelValues(string(DispatchAcknowledged)).Inc()
	return DispatchAcknowledged, nil
}

func (d *EnrichmentDispatcher) send(ctx context.Context, video *models.Video) error {
	body, err := json.Marshal(dispatchRequest{
		VideoID:   video.ID.String(),
		VideoURL:  video.SourceURL,
		ServerURL: d.callbackURL,
	})
	if err != nil {
		return fmt.Errorf("marshal dispatch request: %w", err)
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, d.workerURL+"/process", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send dispatch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("worker returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var ack dispatchAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode worker acknowledgement: %w", err)
	}
	if !ack.Received {
		return fmt.Errorf("worker did not acknowledge: %s", ack.Message)
	}

	return nil
}
