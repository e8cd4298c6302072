package port

import "doc-retriever/domain"

// Chunker splits documents into ordered, possibly overlapping child documents.
type Chunker interface {
	SplitDocuments(docs []domain.Document) []domain.Document
}
