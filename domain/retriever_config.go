package domain

import "fmt"

const (
	DefaultMaxResults = 10
	DefaultK1         = 2.0
	DefaultB          = 0.75
)

// RetrieverConfig is the immutable configuration of a search-engine backed retriever.
type RetrieverConfig struct {
	indexName  string
	maxResults int
	k1         float64
	b          float64
	refresh    bool
}

// RetrieverOption customizes a RetrieverConfig at construction.
type RetrieverOption func(*RetrieverConfig)

// WithMaxResults sets k, the number of hits returned per query.
func WithMaxResults(k int) RetrieverOption {
	return func(c *RetrieverConfig) { c.maxResults = k }
}

// WithBM25 sets the term-frequency saturation (k1) and length normalization (b).
func WithBM25(k1, b float64) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.k1 = k1
		c.b = b
	}
}

// WithRefresh sets the default refresh behaviour of AddDocuments.
func WithRefresh(refresh bool) RetrieverOption {
	return func(c *RetrieverConfig) { c.refresh = refresh }
}

// NewRetrieverConfig creates a RetrieverConfig with defaults k=10, k1=2.0, b=0.75, refresh=true.
func NewRetrieverConfig(indexName string, opts ...RetrieverOption) (*RetrieverConfig, error) {
	if indexName == "" {
		return nil, fmt.Errorf("index name cannot be empty")
	}

	cfg := &RetrieverConfig{
		indexName:  indexName,
		maxResults: DefaultMaxResults,
		k1:         DefaultK1,
		b:          DefaultB,
		refresh:    true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.maxResults <= 0 {
		return nil, fmt.Errorf("max results must be greater than 0, got %d", cfg.maxResults)
	}
	if cfg.k1 < 0 {
		return nil, fmt.Errorf("k1 must be non-negative, got %v", cfg.k1)
	}
	if cfg.b < 0 || cfg.b > 1 {
		return nil, fmt.Errorf("b must be within [0, 1], got %v", cfg.b)
	}
	return cfg, nil
}

// IndexName returns the target index name
func (c *RetrieverConfig) IndexName() string {
	return c.indexName
}

// MaxResults returns k
func (c *RetrieverConfig) MaxResults() int {
	return c.maxResults
}

// K1 returns the BM25 term-frequency saturation parameter
func (c *RetrieverConfig) K1() float64 {
	return c.k1
}

// B returns the BM25 length normalization parameter
func (c *RetrieverConfig) B() float64 {
	return c.b
}

// Refresh reports whether writes are made query-visible before AddDocuments returns
func (c *RetrieverConfig) Refresh() bool {
	return c.refresh
}
