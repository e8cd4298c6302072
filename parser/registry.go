package parser

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"doc-retriever/domain"
	"doc-retriever/port"
)

// Registry maps normalized file extensions to parsers. Unregistered extensions fail closed.
type Registry struct {
	parsers map[string]port.Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]port.Parser)}
}

// NewDefaultRegistry registers the built-in formats: .json records, .pdf and .doc.
func NewDefaultRegistry(chunker port.Chunker, pages PageLoader) *Registry {
	r := NewRegistry()
	r.Register(".json", NewJSONParser())
	r.Register(".pdf", NewPDFParser(pages, chunker))
	r.Register(".doc", NewDocParser())
	return r
}

// Register binds ext (with or without the leading dot, any case) to p.
func (r *Registry) Register(ext string, p port.Parser) {
	r.parsers[normalizeExt(ext)] = p
}

// ParserFor returns the parser for path's extension.
func (r *Registry) ParserFor(path string) (port.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := r.parsers[ext]
	if !ok {
		return nil, &domain.UnsupportedFormatError{Path: path, Extension: ext}
	}
	return p, nil
}

// Parse dispatches path to its parser.
func (r *Registry) Parse(ctx context.Context, path string) ([]domain.Document, error) {
	p, err := r.ParserFor(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path)
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
