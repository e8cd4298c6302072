package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"doc-retriever/config"
	"doc-retriever/domain"
	"doc-retriever/driver"
	"doc-retriever/gateway"
	"doc-retriever/logger"
	"doc-retriever/port"
	"doc-retriever/retriever"
)

// Pinger reports whether the engine behind a retriever is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type engineDriver interface {
	gateway.SearchDriver
	Pinger
	IndexName() string
}

// NewRetriever builds the retriever named by cfg.Retriever.Kind.
// An empty kind or "none" yields a nil retriever and no error; the pipeline
// then only parses. Unknown kinds fail with *domain.UnknownRetrieverTypeError.
func NewRetriever(ctx context.Context, cfg *config.Config) (port.Retriever, Pinger, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Retriever.Kind))
	ctx = logger.WithRetrieverKind(logger.WithSearchIndex(ctx, cfg.Retriever.IndexName), kind)

	switch kind {
	case "", config.RetrieverKindNone:
		logger.GlobalContext.WithContext(ctx).Info("no retriever configured, documents will only be parsed")
		return nil, nil, nil

	case config.RetrieverKindBM25:
		client, err := newElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		d := driver.NewElasticsearchDriver(client, cfg.Retriever.IndexName, cfg.Retriever.K1, cfg.Retriever.B)
		return buildRetriever(ctx, "elasticsearch", cfg.Retriever, d)

	case config.RetrieverKindMeilisearch:
		if cfg.Retriever.K1 != domain.DefaultK1 || cfg.Retriever.B != domain.DefaultB {
			logger.GlobalContext.WithContext(ctx).Warn("meilisearch ranks with its own rules, k1 and b are ignored",
				"k1", cfg.Retriever.K1, "b", cfg.Retriever.B)
		}
		d := driver.NewMeilisearchDriver(newMeilisearchClient(cfg.Meilisearch), cfg.Retriever.IndexName)
		return buildRetriever(ctx, "meilisearch", cfg.Retriever, d)

	default:
		return nil, nil, &domain.UnknownRetrieverTypeError{Kind: cfg.Retriever.Kind}
	}
}

func buildRetriever(ctx context.Context, engine string, rc config.RetrieverConfig, d engineDriver) (port.Retriever, Pinger, error) {
	if err := waitForEngine(ctx, engine, d.Ping); err != nil {
		return nil, nil, err
	}

	searchEngine := gateway.NewSearchEngineGateway(d)
	if err := searchEngine.EnsureIndex(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure index %q: %w", d.IndexName(), err)
	}

	retrieverCfg, err := domain.NewRetrieverConfig(rc.IndexName,
		domain.WithMaxResults(rc.K),
		domain.WithBM25(rc.K1, rc.B),
		domain.WithRefresh(rc.Refresh),
	)
	if err != nil {
		return nil, nil, err
	}

	bm25, err := retriever.NewBM25Retriever(searchEngine, retrieverCfg)
	if err != nil {
		return nil, nil, err
	}

	applied := bm25.Config()
	logger.GlobalContext.WithContext(ctx).Info("retriever ready",
		"engine", engine,
		"index", d.IndexName(),
		"k", applied.MaxResults(),
		"k1", applied.K1(),
		"b", applied.B(),
		"refresh", applied.Refresh(),
	)
	return retriever.WithRetry(bm25, retriever.DefaultRetryPolicy(), logger.Logger), d, nil
}
