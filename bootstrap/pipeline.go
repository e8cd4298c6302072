package bootstrap

import (
	"fmt"

	"doc-retriever/chunker"
	"doc-retriever/config"
	"doc-retriever/logger"
	"doc-retriever/parser"
	"doc-retriever/port"
	"doc-retriever/tokenize"
	"doc-retriever/usecase"
	"doc-retriever/utils"
)

// Pipeline groups the use cases built on one parser registry and retriever.
// Index and Search are nil when there is no retriever.
type Pipeline struct {
	Registry *parser.Registry
	Ingest   *usecase.IngestFilesUsecase
	Index    *usecase.IndexFilesUsecase
	Search   *usecase.SearchDocumentsUsecase
}

func NewPipeline(cfg *config.Config, r port.Retriever) (*Pipeline, error) {
	tokenizer, err := tokenize.New(cfg.Chunker.Tokenizer, cfg.Chunker.Encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	pdfChunker, err := chunker.NewTokenChunker(tokenizer, cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	logger.Logger.Debug("pdf chunker configured",
		"tokenizer", tokenizer.Name(),
		"chunk_size", pdfChunker.Size(),
		"overlap", pdfChunker.Overlap(),
	)

	var ingestOpts []usecase.IngestOption
	if cfg.Ingest.Root != "" {
		root, err := usecase.NewSourceRoot(cfg.Ingest.Root)
		if err != nil {
			return nil, fmt.Errorf("ingest root: %w", err)
		}
		ingestOpts = append(ingestOpts, usecase.WithSourceRoot(root))
	}

	registry := parser.NewDefaultRegistry(pdfChunker, nil)
	p := &Pipeline{
		Registry: registry,
		Ingest:   usecase.NewIngestFilesUsecase(registry, cfg.Ingest.Concurrency, ingestOpts...),
	}
	if r != nil {
		p.Index = usecase.NewIndexFilesUsecase(p.Ingest, r)
		p.Search = usecase.NewSearchDocumentsUsecase(r, usecase.WithQueryPolicy(queryPolicy(cfg.Search)))
	}
	return p, nil
}

func queryPolicy(cfg config.SearchConfig) *utils.QueryPolicy {
	policy := utils.DefaultQueryPolicy().Disallow(cfg.DisallowedPatterns...)
	if cfg.MaxQueryBytes > 0 {
		policy.MaxBytes = cfg.MaxQueryBytes
	}
	policy.KeepMarkup = cfg.KeepMarkup
	return policy
}
