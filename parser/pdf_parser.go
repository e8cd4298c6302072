package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"doc-retriever/domain"
	"doc-retriever/port"
)

// PageLoader extracts the plain text of every page of a paged document.
type PageLoader interface {
	LoadPages(ctx context.Context, path string) ([]string, error)
}

// LedongthucLoader reads PDF pages with github.com/ledongthuc/pdf.
type LedongthucLoader struct{}

func (LedongthucLoader) LoadPages(ctx context.Context, path string) (pages []string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// PDFParser loads a PDF page by page and chunks every page document.
type PDFParser struct {
	loader  PageLoader
	chunker port.Chunker
}

func NewPDFParser(loader PageLoader, chunker port.Chunker) *PDFParser {
	if loader == nil {
		loader = LedongthucLoader{}
	}
	return &PDFParser{loader: loader, chunker: chunker}
}

func (p *PDFParser) Parse(ctx context.Context, path string) ([]domain.Document, error) {
	pages, err := p.loader.LoadPages(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.SourceLoadError{Path: path, Err: err}
	}

	docs := make([]domain.Document, 0, len(pages))
	for i, text := range pages {
		// Pages without extractable text (scans, blank pages) produce no document.
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Content:  text,
			Metadata: domain.Metadata{"source": path, "page": i},
		})
	}

	chunks := p.chunker.SplitDocuments(docs)
	out := chunks[:0]
	for _, c := range chunks {
		// A window can fall entirely inside a run of layout whitespace.
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
