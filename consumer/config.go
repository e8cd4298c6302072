// Package consumer feeds ingestion requests from a Redis Stream into the retriever.
package consumer

import (
	"os"
	"strconv"
	"time"
)

// Config describes where ingest events come from and how they are read.
type Config struct {
	RedisURL  string
	StreamKey string
	// GroupName is shared by every replica; ConsumerName must be unique per replica.
	GroupName    string
	ConsumerName string
	BatchSize    int64
	BlockTimeout time.Duration
	// ErrorBackoff is the pause after a failed read.
	ErrorBackoff time.Duration
	// ClaimIdleTime is how long a delivered message may stay unacknowledged
	// before any replica claims it again. Zero disables reclaiming.
	ClaimIdleTime time.Duration
	Enabled       bool
}

// DefaultConfig returns a disabled consumer reading doc-retriever:events:ingest on localhost.
func DefaultConfig() Config {
	return Config{
		RedisURL:     "redis://localhost:6379",
		StreamKey:    "doc-retriever:events:ingest",
		GroupName:    "doc-retriever-group",
		ConsumerName: defaultConsumerName(),
		BatchSize:    10,
		BlockTimeout: 5 * time.Second,
		ErrorBackoff:  time.Second,
		ClaimIdleTime: 30 * time.Second,
	}
}

func defaultConsumerName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "doc-retriever-" + host
	}
	return "doc-retriever-1"
}

// ConfigFromEnv overlays REDIS_STREAMS_URL and the CONSUMER_* variables on DefaultConfig.
// Unparseable or non-positive numbers keep the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	textVars := map[string]*string{
		"REDIS_STREAMS_URL":   &cfg.RedisURL,
		"CONSUMER_STREAM_KEY": &cfg.StreamKey,
		"CONSUMER_GROUP":      &cfg.GroupName,
		"CONSUMER_NAME":       &cfg.ConsumerName,
	}
	for key, dst := range textVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if n, err := strconv.ParseInt(os.Getenv("CONSUMER_BATCH_SIZE"), 10, 64); err == nil && n > 0 {
		cfg.BatchSize = n
	}
	durationVars := map[string]*time.Duration{
		"CONSUMER_BLOCK_TIMEOUT": &cfg.BlockTimeout,
		"CONSUMER_ERROR_BACKOFF": &cfg.ErrorBackoff,
		"CONSUMER_CLAIM_IDLE":    &cfg.ClaimIdleTime,
	}
	for key, dst := range durationVars {
		if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
			*dst = d
		}
	}
	if enabled, err := strconv.ParseBool(os.Getenv("CONSUMER_ENABLED")); err == nil {
		cfg.Enabled = enabled
	}

	return cfg
}
