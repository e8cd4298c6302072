package port

import (
	"context"

	"doc-retriever/domain"
)

// Retriever adds documents to a retrieval backend and answers relevance queries.
type Retriever interface {
	AddDocuments(ctx context.Context, docs []domain.Document, opts ...AddOption) ([]string, error)
	GetRelevantDocuments(ctx context.Context, query string) ([]domain.Document, error)
}

// AddOptions tune a single AddDocuments call.
type AddOptions struct {
	// Refresh forces the index to become query-visible before returning.
	// Nil keeps the retriever's configured default.
	Refresh *bool
}

type AddOption func(*AddOptions)

// WithRefresh overrides the refresh behaviour for one call.
func WithRefresh(refresh bool) AddOption {
	return func(o *AddOptions) { o.Refresh = &refresh }
}

// ApplyAddOptions folds opts into an AddOptions value.
func ApplyAddOptions(opts ...AddOption) AddOptions {
	var o AddOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
