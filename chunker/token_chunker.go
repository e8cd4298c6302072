package chunker

import (
	"fmt"

	"doc-retriever/domain"
	"doc-retriever/port"
)

const (
	// DefaultChunkSize is the token budget for one chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of tokens shared by neighbouring chunks.
	DefaultChunkOverlap = 200
)

// TokenChunker splits documents into overlapping windows of tokens.
type TokenChunker struct {
	tokenizer port.Tokenizer
	size      int
	overlap   int
}

func NewTokenChunker(tokenizer port.Tokenizer, size, overlap int) (*TokenChunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrInvalidChunkParams)
	}
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", domain.ErrInvalidChunkParams, size, overlap)
	}
	return &TokenChunker{tokenizer: tokenizer, size: size, overlap: overlap}, nil
}

func (c *TokenChunker) Size() int    { return c.size }
func (c *TokenChunker) Overlap() int { return c.overlap }

// Split returns the chunks of doc in left-to-right order. Every chunk is an
// exact substring of doc.Content and carries a shallow copy of its metadata.
// A document that fits in one window comes back as a single chunk equal to it.
func (c *TokenChunker) Split(doc domain.Document) []domain.Document {
	spans := c.tokenizer.Spans(doc.Content)
	n := len(spans)
	if n <= c.size {
		whole := doc.WithContent(doc.Content)
		whole.ID = doc.ID
		return []domain.Document{whole}
	}

	step := c.size - c.overlap
	chunks := make([]domain.Document, 0, (n-c.overlap+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+c.size, n)
		chunks = append(chunks, doc.WithContent(doc.Content[spans[start].Start:spans[end-1].End]))
		if end == n {
			break
		}
	}
	return chunks
}

// SplitDocuments chunks every document and concatenates the results in order.
func (c *TokenChunker) SplitDocuments(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, c.Split(doc)...)
	}
	return out
}
