package parser

import (
	"context"

	"doc-retriever/domain"
)

// DocParser is the registered handler for legacy .doc files. Parsing that
// format is not supported; every call fails.
type DocParser struct{}

func NewDocParser() *DocParser {
	return &DocParser{}
}

func (p *DocParser) Parse(_ context.Context, path string) ([]domain.Document, error) {
	return nil, &domain.NotImplementedFeatureError{Feature: "legacy .doc parsing", Path: path}
}
