// Package metadata fetches descriptive video metadata from the YouTube
// Data API. The provider is unreliable by contract: callers fall back to
// placeholder values when it fails.
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Metadata is the descriptive data for one video.
type Metadata struct {
	Title         string
	ThumbnailURL  string
	DurationLabel string
	Duration      time.Duration
}

// Provider resolves a source URL to video metadata.
type Provider interface {
	Fetch(ctx context.Context, sourceURL string) (*Metadata, error)
}

// Client is a Provider backed by the YouTube Data API v3.
type Client struct {
	service *youtube.Service
	timeout time.Duration
}

// NewClient creates a new metadata client.
func NewClient(ctx context.Context, apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("metadata API key is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{service: service, timeout: timeout}, nil
}

// Fetch looks up title, thumbnail and duration for the video behind
// sourceURL with a bounded timeout.
func (c *Client) Fetch(ctx context.Context, sourceURL string) (*Metadata, error) {
	videoID, err := ExtractVideoID(sourceURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.service.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found, it may be private or deleted", videoID)
	}

	item := resp.Items[0]

	duration, err := ParseISO8601Duration(item.ContentDetails.Duration)
	if err != nil {
		return nil, fmt.Errorf("parse duration for %s: %w", videoID, err)
	}

	return &Metadata{
		Title:         item.Snippet.Title,
		ThumbnailURL:  bestThumbnail(item.Snippet.Thumbnails),
		DurationLabel: FormatDurationLabel(duration),
		Duration:      duration,
	}, nil
}

func bestThumbnail(details *youtube.ThumbnailDetails) string {
	if details == nil {
		return ""
	}
	switch {
	case details.Medium != nil:
		return details.Medium.Url
	case details.High != nil:
		return details.High.Url
	case details.Default != nil:
		return details.Default.Url
	}
	return ""
}

// ExtractVideoID pulls the video id out of a YouTube watch or short URL.
func ExtractVideoID(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		// Shorts and embeds carry the id as the last path segment.
		if strings.HasPrefix(u.Path, "/shorts/") || strings.HasPrefix(u.Path, "/embed/") {
			if id := strings.Trim(u.Path[strings.LastIndex(u.Path, "/"):], "/"); id != "" {
				return id, nil
			}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("unsupported video URL: %s", sourceURL)
}

var iso8601Duration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISO8601Duration parses the PT#H#M#S format the Data API returns.
func ParseISO8601Duration(s string) (time.Duration, error) {
	matches := iso8601Duration.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("malformed duration %q", s)
	}

	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q: %w", s, err)
		}
		total += time.Duration(n) * unit
	}

	return total, nil
}

// FormatDurationLabel renders a duration as the M:SS label stored on the
// video record.
func FormatDurationLabel(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
