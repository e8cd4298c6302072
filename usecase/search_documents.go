package usecase

import (
	"context"
	"fmt"
	"time"

	"doc-retriever/domain"
	"doc-retriever/port"
	"doc-retriever/utils"
	"doc-retriever/utils/otel"
)

type SearchDocumentsUsecase struct {
	retriever port.Retriever
	policy    *utils.QueryPolicy
}

type SearchResult struct {
	Query     string
	Documents []domain.Document
	Total     int
}

// SearchOption configures a SearchDocumentsUsecase.
type SearchOption func(*SearchDocumentsUsecase)

// WithQueryPolicy replaces the default query policy.
func WithQueryPolicy(policy *utils.QueryPolicy) SearchOption {
	return func(u *SearchDocumentsUsecase) {
		if policy != nil {
			u.policy = policy
		}
	}
}

func NewSearchDocumentsUsecase(retriever port.Retriever, opts ...SearchOption) *SearchDocumentsUsecase {
	u := &SearchDocumentsUsecase{
		retriever: retriever,
		policy:    utils.DefaultQueryPolicy(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *SearchDocumentsUsecase) Execute(ctx context.Context, query string) (*SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidQuery)
	}

	sanitizedQuery, err := u.policy.Clean(query)
	if err != nil {
		return nil, err
	}

	// Blank or markup-only queries have no terms to match.
	if sanitizedQuery == "" {
		return nil, fmt.Errorf("%w: query has no searchable terms", domain.ErrInvalidQuery)
	}

	start := time.Now()
	documents, err := u.retriever.GetRelevantDocuments(ctx, sanitizedQuery)
	otel.RecordSearchDuration(ctx, time.Since(start))
	if err != nil {
		otel.RecordError(ctx, "search")
		return nil, err
	}

	return &SearchResult{
		Query:     sanitizedQuery,
		Documents: documents,
		Total:     len(documents),
	}, nil
}
