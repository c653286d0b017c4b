package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		IndexHost: server.URL,
		APIKey:    "test-key",
		Timeout:   2 * time.Second,
	})
	require.NoError(t, err)

	return client, server
}

func TestNewClient_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{APIKey: "k"})
	require.Error(t, err)

	_, err = NewClient(Config{IndexHost: "https://idx.example"})
	require.Error(t, err)
}

func TestClient_Upsert(t *testing.T) {
	var gotPath string
	var gotAPIKey string
	var gotReq upsertRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: len(gotReq.Vectors)})
	})

	vectors := []Vector{
		{ID: "v1_chunk_0", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"videoId": "v1"}},
		{ID: "v1_chunk_1", Values: []float32{0.3, 0.4}, Metadata: map[string]any{"videoId": "v1"}},
	}

	err := client.Upsert(context.Background(), "transcripts", vectors)
	require.NoError(t, err)

	assert.Equal(t, "/vectors/upsert", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "transcripts", gotReq.Namespace)
	assert.Len(t, gotReq.Vectors, 2)
}

func TestClient_Upsert_CountMismatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: 1})
	})

	err := client.Upsert(context.Background(), "transcripts", []Vector{
		{ID: "a", Values: []float32{1}},
		{ID: "b", Values: []float32{2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestClient_Upsert_EmptyIsNoop(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, client.Upsert(context.Background(), "transcripts", nil))
	assert.False(t, called)
}

func TestClient_Query(t *testing.T) {
	var gotReq queryRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(queryResponse{Matches: []Match{
			{ID: "v1_chunk_0", Score: 0.92, Metadata: map[string]any{"videoId": "v1", "chunk": "hello world"}},
			{ID: "v2_chunk_3", Score: 0.71, Metadata: map[string]any{"videoId": "v2", "chunk": "other"}},
		}})
	})

	matches, err := client.Query(context.Background(), QueryRequest{
		Vector:    []float32{0.5, 0.5},
		TopK:      2,
		Namespace: "transcripts",
		Filter:    map[string]any{"videoId": "v1"},
	})
	require.NoError(t, err)

	assert.True(t, gotReq.IncludeMetadata)
	assert.Equal(t, 2, gotReq.TopK)
	assert.Equal(t, map[string]any{"videoId": "v1"}, gotReq.Filter)

	require.Len(t, matches, 2)
	assert.Equal(t, "v1_chunk_0", matches[0].ID)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)
	assert.Equal(t, "hello world", matches[0].Metadata["chunk"])
}

func TestClient_Query_NoMatches(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queryResponse{})
	})

	matches, err := client.Query(context.Background(), QueryRequest{Vector: []float32{1}, TopK: 2})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClient_Delete(t *testing.T) {
	var gotReq deleteRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{}`))
	})

	err := client.Delete(context.Background(), "transcripts", []string{"v1_chunk_4", "v1_chunk_5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1_chunk_4", "v1_chunk_5"}, gotReq.IDs)
	assert.Equal(t, "transcripts", gotReq.Namespace)
}

func TestClient_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Query(context.Background(), QueryRequest{Vector: []float32{1}, TopK: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
