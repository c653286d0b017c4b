// Package metrics exposes prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VideosIngested counts ingest requests by result
	// (created, existing, rejected).
	VideosIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchserver_videos_ingested_total",
		Help: "Ingest requests by result",
	}, []string{"result"})

	// DispatchOutcomes counts enrichment dispatch attempts by outcome.
	DispatchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchserver_dispatch_outcomes_total",
		Help: "Enrichment dispatch attempts by outcome",
	}, []string{"outcome"})

	// ChunksIndexed counts transcript chunks written to the vector index.
	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchserver_chunks_indexed_total",
		Help: "Transcript chunks upserted into the vector index",
	})

	// IndexOperations counts indexing runs by status (ok, empty, error).
	IndexOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchserver_index_operations_total",
		Help: "Transcript indexing operations by status",
	}, []string{"status"})

	// SearchQueries counts semantic retrieval queries by status
	// (ok, empty_query, error).
	SearchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchserver_search_queries_total",
		Help: "Semantic retrieval queries by status",
	}, []string{"status"})
)
