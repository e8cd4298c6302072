package port

import (
	"context"

	"doc-retriever/domain"
)

// SearchEngine is the retriever's view of a full-text engine index.
type SearchEngine interface {
	// EnsureIndex creates the index with its ranking settings if it does not exist yet.
	EnsureIndex(ctx context.Context) error
	// BulkIndex submits all documents in one bulk write. Every document must carry an id.
	// The returned ids are the ones the engine acknowledged, in input order.
	BulkIndex(ctx context.Context, docs []domain.Document) ([]string, error)
	// Refresh makes prior writes visible to search.
	Refresh(ctx context.Context) error
	// Search runs a full-text match on content and returns up to limit hits by descending score.
	Search(ctx context.Context, query string, limit int) ([]domain.Document, error)
}
