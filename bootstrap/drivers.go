package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/meilisearch/meilisearch-go"

	"doc-retriever/config"
	"doc-retriever/logger"
)

// newElasticsearchClient builds a client from config. No request is sent.
func newElasticsearchClient(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in for self-signed dev clusters
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: transport,
		// Callers retry through backoff; transport retries would multiply attempts.
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

func newMeilisearchClient(cfg config.MeilisearchConfig) meilisearch.ServiceManager {
	return meilisearch.New(cfg.Host,
		meilisearch.WithAPIKey(cfg.APIKey),
		meilisearch.WithCustomClient(&http.Client{Timeout: cfg.Timeout}),
	)
}

// waitForEngine pings until the engine answers or the configured attempts run out.
func waitForEngine(ctx context.Context, name string, ping func(context.Context) error) error {
	logger.Logger.Info("Connecting to search engine", "engine", name)

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, ping(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(config.EngineConnectDelay)),
		backoff.WithMaxTries(uint(max(config.EngineConnectRetries, 1))),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Logger.Warn("search engine not ready, retrying",
				"engine", name, "attempt", attempt, "max", config.EngineConnectRetries, "retry_in", next, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to %s after %d attempts: %w", name, attempt, err)
	}

	logger.Logger.Info("Connected to search engine", "engine", name)
	return nil
}
