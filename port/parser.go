package port

import (
	"context"

	"doc-retriever/domain"
)

// Parser extracts an ordered sequence of documents from a single source file.
type Parser interface {
	Parse(ctx context.Context, path string) ([]domain.Document, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, path string) ([]domain.Document, error)

func (f ParserFunc) Parse(ctx context.Context, path string) ([]domain.Document, error) {
	return f(ctx, path)
}
