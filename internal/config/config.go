// Package config loads the upload service's configuration from the
// environment, mirroring the original Python service's
// pydantic_settings.BaseSettings field set.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/supox/genomics-upload-service/internal/constants"
)

// Config holds all runtime configuration for the upload service.
type Config struct {
	DatabaseURL string // Persistence target (default: local sqlite file)

	AWSAccessKeyID     string // Object-store credentials
	AWSSecretAccessKey string
	AWSRegion          string
	AWSEndpointURL     string // Override endpoint (e.g. local emulator)

	ChunkSize              int           // Multipart part size in bytes
	WorkerConcurrency      int           // Max parallel files per job
	ChunksConcurrency      int           // Max parallel parts process-wide
	FileMonitorInterval    time.Duration // Time between monitor ticks
	FileStabilityThreshold time.Duration // Quiet interval before re-scan picks up a file

	LogLevel string // Log verbosity
}

// Load reads configuration from the environment. If a .env file is present
// in the working directory it is loaded first (local/dev convenience);
// real environment variables always take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "file:./data/uploads.db"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:     os.Getenv("AWS_ENDPOINT_URL"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
	}

	var err error
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", constants.DefaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getEnvInt("WORKER_CONCURRENCY", constants.DefaultWorkerConcurrency); err != nil {
		return nil, err
	}
	if cfg.ChunksConcurrency, err = getEnvInt("CHUNKS_CONCURRENCY", constants.DefaultChunksConcurrency); err != nil {
		return nil, err
	}

	monitorSeconds, err := getEnvInt("FILE_MONITOR_INTERVAL", int(constants.DefaultFileMonitorInterval.Seconds()))
	if err != nil {
		return nil, err
	}
	cfg.FileMonitorInterval = time.Duration(monitorSeconds) * time.Second

	stabilitySeconds, err := getEnvInt("FILE_STABILITY_THRESHOLD", int(constants.DefaultFileStabilityThreshold.Seconds()))
	if err != nil {
		return nil, err
	}
	cfg.FileStabilityThreshold = time.Duration(stabilitySeconds) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures configuration values are within sane bounds.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.AWSRegion == "" {
		return fmt.Errorf("aws region is required")
	}
	if c.ChunkSize < constants.MinPartSize {
		return fmt.Errorf("chunk size must be at least %d bytes", constants.MinPartSize)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1")
	}
	if c.ChunksConcurrency < 1 {
		return fmt.Errorf("chunks concurrency must be at least 1")
	}
	if c.FileMonitorInterval <= 0 {
		return fmt.Errorf("file monitor interval must be positive")
	}
	if c.FileStabilityThreshold < 0 {
		return fmt.Errorf("file stability threshold must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}
