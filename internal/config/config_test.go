package config

import "testing"

func TestValidateRejectsSmallChunkSize(t *testing.T) {
	c := &Config{
		DatabaseURL:            "file:./data/uploads.db",
		AWSRegion:              "us-east-1",
		ChunkSize:              1024,
		WorkerConcurrency:      5,
		ChunksConcurrency:      10,
		FileMonitorInterval:    60,
		FileStabilityThreshold: 30,
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for chunk size below S3 minimum part size")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	c := &Config{
		DatabaseURL:            "file:./data/uploads.db",
		AWSRegion:              "us-east-1",
		ChunkSize:              5 * 1024 * 1024,
		WorkerConcurrency:      5,
		ChunksConcurrency:      10,
		FileMonitorInterval:    60,
		FileStabilityThreshold: 30,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsZeroWorkerConcurrency(t *testing.T) {
	c := &Config{
		DatabaseURL:            "file:./data/uploads.db",
		AWSRegion:              "us-east-1",
		ChunkSize:              5 * 1024 * 1024,
		WorkerConcurrency:      0,
		ChunksConcurrency:      10,
		FileMonitorInterval:    60,
		FileStabilityThreshold: 30,
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero worker concurrency")
	}
}
