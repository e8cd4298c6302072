package gateway

import (
	"context"
	"fmt"

	"doc-retriever/domain"
	"doc-retriever/driver"
)

type SearchDriver interface {
	EnsureIndex(ctx context.Context) error
	BulkIndex(ctx context.Context, entries []driver.IndexEntryDriver) ([]driver.BulkItemResult, error)
	Refresh(ctx context.Context) error
	Search(ctx context.Context, query string, limit int) ([]driver.IndexEntryDriver, error)
}

// SearchEngineGateway adapts a SearchDriver to port.SearchEngine. Every driver
// failure leaves this layer as a *domain.RetrievalBackendError.
type SearchEngineGateway struct {
	driver SearchDriver
}

func NewSearchEngineGateway(driver SearchDriver) *SearchEngineGateway {
	return &SearchEngineGateway{
		driver: driver,
	}
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context) error {
	if err := g.driver.EnsureIndex(ctx); err != nil {
		return &domain.RetrievalBackendError{Op: "EnsureIndex", Err: err}
	}
	return nil
}

func (g *SearchEngineGateway) BulkIndex(ctx context.Context, docs []domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	entries := make([]driver.IndexEntryDriver, len(docs))
	for i, doc := range docs {
		entries[i] = driver.IndexEntryDriver{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata.Clone(),
		}
	}

	results, err := g.driver.BulkIndex(ctx, entries)
	if err != nil {
		return nil, &domain.RetrievalBackendError{Op: "BulkIndex", Err: err}
	}

	if len(results) != len(entries) {
		return nil, &domain.RetrievalBackendError{
			Op:  "BulkIndex",
			Err: fmt.Errorf("engine acknowledged %d of %d documents", len(results), len(entries)),
		}
	}

	var failed *domain.BulkIndexError
	ids := make([]string, len(results))
	for i, r := range results {
		want := entries[i].ID
		ids[i] = r.ID
		reason := r.Error
		switch {
		case r.Failed():
		case want != "" && r.ID != want:
			reason = fmt.Sprintf("engine stored document under id %q", r.ID)
		default:
			continue
		}
		if failed == nil {
			failed = &domain.BulkIndexError{Reasons: make(map[string]string)}
		}
		id := want
		if id == "" {
			id = r.ID
		}
		failed.FailedIDs = append(failed.FailedIDs, id)
		failed.Reasons[id] = reason
	}
	if failed != nil {
		return nil, &domain.RetrievalBackendError{Op: "BulkIndex", Err: failed}
	}
	return ids, nil
}

func (g *SearchEngineGateway) Refresh(ctx context.Context) error {
	if err := g.driver.Refresh(ctx); err != nil {
		return &domain.RetrievalBackendError{Op: "Refresh", Err: err}
	}
	return nil
}

func (g *SearchEngineGateway) Search(ctx context.Context, query string, limit int) ([]domain.Document, error) {
	entries, err := g.driver.Search(ctx, query, limit)
	if err != nil {
		return nil, &domain.RetrievalBackendError{Op: "Search", Err: err}
	}

	docs := make([]domain.Document, len(entries))
	for i, e := range entries {
		docs[i] = domain.Document{
			ID:       e.ID,
			Content:  e.Content,
			Metadata: domain.Metadata(e.Metadata).Clone(),
		}
	}
	return docs, nil
}
