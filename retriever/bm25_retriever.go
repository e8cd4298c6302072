package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"doc-retriever/domain"
	"doc-retriever/port"
)

// BM25Retriever indexes documents into a search engine index scored with
// BM25 and answers match queries against their content.
type BM25Retriever struct {
	engine port.SearchEngine
	config *domain.RetrieverConfig
	newID  func() string
}

func NewBM25Retriever(engine port.SearchEngine, config *domain.RetrieverConfig) (*BM25Retriever, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if config == nil {
		return nil, errors.New("retriever config is required")
	}
	return &BM25Retriever{
		engine: engine,
		config: config,
		newID:  uuid.NewString,
	}, nil
}

func (r *BM25Retriever) Config() *domain.RetrieverConfig {
	return r.config
}

// AddDocuments writes docs in a single bulk request and returns their ids in
// input order. Documents without an id get a fresh UUID; the inputs are not modified.
func (r *BM25Retriever) AddDocuments(ctx context.Context, docs []domain.Document, opts ...port.AddOption) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	prepared, ids, err := AssignIDs(docs, r.newID)
	if err != nil {
		return nil, err
	}

	acked, err := r.engine.BulkIndex(ctx, prepared)
	if err != nil {
		return nil, asBackendError("AddDocuments", err)
	}
	if err := verifyAcknowledged(ids, acked); err != nil {
		return nil, &domain.RetrievalBackendError{Op: "AddDocuments", Err: err}
	}

	refresh := r.config.Refresh()
	if o := port.ApplyAddOptions(opts...); o.Refresh != nil {
		refresh = *o.Refresh
	}
	if refresh {
		if err := r.engine.Refresh(ctx); err != nil {
			return nil, asBackendError("AddDocuments", err)
		}
	}
	return ids, nil
}

// GetRelevantDocuments returns up to k documents ranked by the engine's score.
// No match yields an empty slice.
func (r *BM25Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]domain.Document, error) {
	docs, err := r.engine.Search(ctx, query, r.config.MaxResults())
	if err != nil {
		return nil, asBackendError("GetRelevantDocuments", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// AssignIDs copies docs, giving every document without an id a fresh one.
// It fails with domain.ErrDuplicateDocumentID if two documents share an id.
func AssignIDs(docs []domain.Document, newID func() string) ([]domain.Document, []string, error) {
	prepared := make([]domain.Document, len(docs))
	ids := make([]string, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if !doc.HasID() {
			doc = doc.WithID(newID())
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrDuplicateDocumentID, doc.ID)
		}
		seen[doc.ID] = struct{}{}
		prepared[i] = doc
		ids[i] = doc.ID
	}
	return prepared, ids, nil
}

func verifyAcknowledged(want, got []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("engine acknowledged %d of %d documents", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("engine stored document %d as %q, expected %q", i, got[i], want[i])
		}
	}
	return nil
}

func asBackendError(op string, err error) error {
	var backendErr *domain.RetrievalBackendError
	if errors.As(err, &backendErr) {
		return err
	}
	return &domain.RetrievalBackendError{Op: op, Err: err}
}
