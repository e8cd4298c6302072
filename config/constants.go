package config

import (
	"os"
	"strconv"
	"time"
)

// Service constants with env var override support.
var (
	HTTPAddr             = stringEnv("HTTP_ADDR", ":9300")
	EngineTimeout        = durationEnv("ENGINE_TIMEOUT", 15*time.Second)
	EngineConnectRetries = intEnv("ENGINE_CONNECT_RETRIES", 5)
	EngineConnectDelay   = durationEnv("ENGINE_CONNECT_DELAY", 2*time.Second)
	IngestTimeout        = durationEnv("INGEST_TIMEOUT", 10*time.Minute)
	SearchTimeout        = durationEnv("SEARCH_TIMEOUT", 10*time.Second)
)

func stringEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func durationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
