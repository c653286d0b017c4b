package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/config"
	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/queue"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/internal/service/embedding"
	"github.com/adeelfeb/watchServer/internal/service/pinecone"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

const defaultConcurrency = 4

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	videoRepo := repository.NewVideoRepository(pool)

	dispatcher := service.NewEnrichmentDispatcher(
		videoRepo,
		&http.Client{},
		cfg.Worker.BaseURL,
		cfg.Worker.CallbackBaseURL,
		cfg.Worker.DispatchTimeout,
		cfg.Worker.InflightLease,
	)

	embedder := embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
	vectorStore, err := pinecone.NewClient(pinecone.Config{
		IndexHost: cfg.Pinecone.IndexHost,
		APIKey:    cfg.Pinecone.APIKey,
		Timeout:   cfg.Pinecone.Timeout,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize pinecone client", zap.Error(err))
	}
	indexer := index.NewIndexer(videoRepo, embedder, vectorStore, cfg.Pinecone.Namespace, cfg.Index.ChunkSize)

	taskHandler := queue.NewTaskHandler(videoRepo, dispatcher, indexer)

	server, err := queue.NewServer(cfg.Redis.URL, defaultConcurrency, taskHandler)
	if err != nil {
		logger.Log.Fatal("Failed to initialize task server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		logger.Log.Fatal("Failed to start task server", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	server.Shutdown()
	logger.Log.Info("Worker stopped gracefully")
}
