package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"doc-retriever/domain"
	"doc-retriever/port"
)

// mockParser returns one document per path, or the error registered for it.
type mockParser struct {
	mu     sync.Mutex
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func (m *mockParser) Parse(ctx context.Context, path string) ([]domain.Document, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if d, ok := m.delays[path]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".docx" {
		return nil, &domain.UnsupportedFormatError{Path: path, Extension: ".docx"}
	}
	return []domain.Document{
		{Content: "content of " + path, Metadata: domain.Metadata{"source": path}},
	}, nil
}

func (m *mockParser) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockRetriever struct {
	added   []domain.Document
	results []domain.Document
	opts    port.AddOptions
	addErr  error
	getErr  error
	queries []string
}

func (m *mockRetriever) AddDocuments(ctx context.Context, docs []domain.Document, opts ...port.AddOption) ([]string, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.opts = port.ApplyAddOptions(opts...)
	m.added = append(m.added, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = "id-" + string(rune('a'+i))
	}
	return ids, nil
}

func (m *mockRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]domain.Document, error) {
	m.queries = append(m.queries, query)
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.results == nil {
		return []domain.Document{}, nil
	}
	return m.results, nil
}
