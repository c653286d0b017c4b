// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Worker   WorkerConfig
	Metadata MetadataConfig
	OpenAI   OpenAIConfig
	Pinecone PineconeConfig
	Index    IndexConfig
	Logging  LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the Redis connection used by the task queue.
type RedisConfig struct {
	URL string
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	APIKeys []string
}

// WorkerConfig describes the external enrichment worker contract.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type WorkerConfig struct {
	// BaseURL is where dispatch requests are POSTed.
	BaseURL string
	// CallbackBaseURL is the address the worker posts results back to.
	CallbackBaseURL string
	DispatchTimeout time.Duration
	// InflightLease bounds how long a claimed dispatch may stay inflight
	// before it becomes claimable again.
	InflightLease time.Duration
	MaxRetries    int
}

// MetadataConfig contains YouTube metadata fetch configuration.
type MetadataConfig struct {
	APIKey string
	// MaxDuration rejects videos longer than this. Zero disables the cap.
	MaxDuration  time.Duration
	FetchTimeout time.Duration
}

// OpenAIConfig contains embedding service configuration.
type OpenAIConfig struct {
	APIKey  string
	Timeout time.Duration
}

// PineconeConfig contains vector index configuration.
type PineconeConfig struct {
	APIKey string
	// IndexHost is the data-plane host of the index, e.g.
	// "https://transcripts-abc123.svc.us-east-1.pinecone.io".
	IndexHost string
	Namespace string
	Timeout   time.Duration
}

// IndexConfig contains chunking and retrieval defaults.
type IndexConfig struct {
	ChunkSize      int
	TopK           int
	ScoreThreshold float64
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "watchserver")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis / task queue
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// Enrichment worker
	viper.SetDefault("worker.baseurl", "")
	viper.SetDefault("worker.callbackbaseurl", "http://localhost:8080")
	viper.SetDefault("worker.dispatchtimeout", 15*time.Second)
	viper.SetDefault("worker.inflightlease", 2*time.Minute)
	viper.SetDefault("worker.maxretries", 5)

	// Metadata
	viper.SetDefault("metadata.apikey", "")
	viper.SetDefault("metadata.maxduration", 20*time.Minute)
	viper.SetDefault("metadata.fetchtimeout", 10*time.Second)

	// OpenAI embeddings
	viper.SetDefault("openai.apikey", "")
	viper.SetDefault("openai.timeout", 30*time.Second)

	// Pinecone
	viper.SetDefault("pinecone.apikey", "")
	viper.SetDefault("pinecone.indexhost", "")
	viper.SetDefault("pinecone.namespace", "transcripts")
	viper.SetDefault("pinecone.timeout", 15*time.Second)

	// Indexing and retrieval
	viper.SetDefault("index.chunksize", 500)
	viper.SetDefault("index.topk", 2)
	viper.SetDefault("index.scorethreshold", 0.6)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
