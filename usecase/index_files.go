package usecase

import (
	"context"
	"time"

	"doc-retriever/domain"
	"doc-retriever/logger"
	"doc-retriever/port"
	"doc-retriever/utils/otel"
)

type IndexFilesUsecase struct {
	ingest    *IngestFilesUsecase
	retriever port.Retriever
}

type IndexResult struct {
	FileCount     int
	DocumentCount int
	IDs           []string
}

func NewIndexFilesUsecase(ingest *IngestFilesUsecase, retriever port.Retriever) *IndexFilesUsecase {
	return &IndexFilesUsecase{
		ingest:    ingest,
		retriever: retriever,
	}
}

// Execute parses paths and adds the resulting documents in one call to the
// retriever. Nothing is written if any file fails to parse.
func (u *IndexFilesUsecase) Execute(ctx context.Context, paths []string, opts ...port.AddOption) (*IndexResult, error) {
	docs, err := u.ingest.Execute(ctx, paths)
	if err != nil {
		return nil, err
	}
	return u.addDocuments(ctx, len(paths), docs, opts...)
}

// AddDocuments indexes documents supplied directly by a caller.
func (u *IndexFilesUsecase) AddDocuments(ctx context.Context, docs []domain.Document, opts ...port.AddOption) (*IndexResult, error) {
	for _, doc := range docs {
		if _, err := domain.NewDocument(doc.ID, doc.Content, doc.Metadata); err != nil {
			return nil, err
		}
	}
	return u.addDocuments(ctx, 0, docs, opts...)
}

func (u *IndexFilesUsecase) addDocuments(ctx context.Context, files int, docs []domain.Document, opts ...port.AddOption) (*IndexResult, error) {
	if len(docs) == 0 {
		return &IndexResult{FileCount: files, IDs: []string{}}, nil
	}

	start := time.Now()
	ids, err := u.retriever.AddDocuments(ctx, docs, opts...)
	otel.RecordBatchDuration(ctx, time.Since(start))
	if err != nil {
		otel.RecordError(ctx, "add_documents")
		logger.GlobalContext.LogError(ctx, "add_documents", err)
		return nil, err
	}
	otel.RecordIndexed(ctx, len(ids))
	logger.GlobalContext.WithContext(ctx).Info("documents indexed",
		"files", files,
		"documents", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &IndexResult{
		FileCount:     files,
		DocumentCount: len(docs),
		IDs:           ids,
	}, nil
}
