package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/config"
	"github.com/adeelfeb/watchServer/internal/db"
	"github.com/adeelfeb/watchServer/internal/db/repository"
	"github.com/adeelfeb/watchServer/internal/handler"
	"github.com/adeelfeb/watchServer/internal/index"
	"github.com/adeelfeb/watchServer/internal/middleware"
	"github.com/adeelfeb/watchServer/internal/queue"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/internal/service/embedding"
	"github.com/adeelfeb/watchServer/internal/service/metadata"
	"github.com/adeelfeb/watchServer/internal/service/pinecone"
	"github.com/adeelfeb/watchServer/pkg/logger"
)

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
	logger.Log.Info("Database connection established",
		zap.Int32("maxConns", pool.Config().MaxConns),
	)

	videoRepo := repository.NewVideoRepository(pool)
	watchRefRepo := repository.NewWatchReferenceRepository(pool)

	queueClient, err := queue.NewClient(cfg.Redis.URL, cfg.Worker.MaxRetries)
	if err != nil {
		logger.Log.Fatal("Failed to initialize queue client", zap.Error(err))
	}
	defer queueClient.Close()

	provider, err := metadata.NewClient(ctx, cfg.Metadata.APIKey, cfg.Metadata.FetchTimeout)
	if err != nil {
		logger.Log.Fatal("Failed to initialize metadata client", zap.Error(err))
	}

	registry := service.NewVideoRegistry(videoRepo, watchRefRepo, provider, cfg.Metadata.MaxDuration)
	callbacks := service.NewEnrichmentCallbackHandler(videoRepo, queueClient)

	embedder := embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
	vectorStore, err := pinecone.NewClient(pinecone.Config{
		IndexHost: cfg.Pinecone.IndexHost,
		APIKey:    cfg.Pinecone.APIKey,
		Timeout:   cfg.Pinecone.Timeout,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize pinecone client", zap.Error(err))
	}
	retriever := index.NewRetriever(embedder, vectorStore, cfg.Pinecone.Namespace, cfg.Index.TopK, cfg.Index.ScoreThreshold)

	router := &handler.Router{
		Videos:    handler.NewVideoHandler(registry, queueClient),
		Callbacks: handler.NewCallbackHandler(callbacks),
		Search:    handler.NewSearchHandler(retriever),
		Health:    handler.NewHealthHandler(videoRepo),
		Auth:      middleware.NewAPIKeyAuth(cfg.Auth.APIKeys),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Fatal("Server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Log.Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("Failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		logger.Log.Info("Server stopped gracefully")
	}
}
