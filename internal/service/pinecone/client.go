// Package pinecone is a client for the Pinecone vector index data plane.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Vector is one entry in the index.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one similarity-search result.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryRequest describes a top-K similarity search.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type QueryRequest struct {
	Vector    []float32
	TopK      int
	Namespace string
	// Filter restricts matches by metadata equality, e.g.
	// {"videoId": "..."}.
	Filter map[string]any
}

// Client talks to the data-plane REST API of one Pinecone index.
type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

// Config holds the configuration for the Pinecone client.
type Config struct {
	// IndexHost is the index data-plane host, including scheme.
	IndexHost string
	APIKey    string
	Timeout   time.Duration // default 15 seconds
}

// NewClient creates a new Pinecone index client.
func NewClient(config Config) (*Client, error) {
	if config.IndexHost == "" {
		return nil, fmt.Errorf("pinecone index host is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		host:   strings.TrimSuffix(config.IndexHost, "/"),
		apiKey: config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Upsert writes vectors into the namespace, overwriting entries that
// share an id.
func (c *Client) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	var resp upsertResponse
	err := c.post(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: namespace,
	}, &resp)
	if err != nil {
		return err
	}

	if resp.UpsertedCount != len(vectors) {
		return fmt.Errorf("upsert wrote %d of %d vectors", resp.UpsertedCount, len(vectors))
	}

	return nil
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Namespace       string         `json:"namespace,omitempty"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// Query runs a top-K similarity search and returns matches ordered by
// descending score. No matches is a normal outcome, not an error.
func (c *Client) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	var resp queryResponse
	err := c.post(ctx, "/query", queryRequest{
		Vector:          req.Vector,
		TopK:            req.TopK,
		Namespace:       req.Namespace,
		Filter:          req.Filter,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Matches, nil
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

// Delete removes vectors by id. Deleting ids that do not exist succeeds.
func (c *Client) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return c.post(ctx, "/vectors/delete", deleteRequest{
		IDs:       ids,
		Namespace: namespace,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request to pinecone: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone %s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse pinecone response: %w", err)
		}
	}

	return nil
}
