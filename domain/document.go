package domain

import (
	"maps"
	"strings"
)

// Metadata is opaque per-document data carried through the pipeline unchanged.
type Metadata map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// Document is the normalized unit of text flowing from parsers to the index.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// NewDocument validates content and normalizes metadata to a non-nil map.
func NewDocument(id, content string, metadata Metadata) (Document, error) {
	if strings.TrimSpace(content) == "" {
		return Document{}, ErrEmptyContent
	}
	return Document{
		ID:       id,
		Content:  content,
		Metadata: metadata.Clone(),
	}, nil
}

// HasID reports whether the document already carries a stable identifier.
func (d Document) HasID() bool {
	return d.ID != ""
}

// WithContent derives a child document (e.g. a chunk) that inherits a shallow
// copy of the parent's metadata and drops the parent's identity.
func (d Document) WithContent(content string) Document {
	return Document{
		Content:  content,
		Metadata: d.Metadata.Clone(),
	}
}

// WithID returns a copy of the document carrying id.
func (d Document) WithID(id string) Document {
	d.ID = id
	return d
}
