package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"doc-retriever/domain"
	"doc-retriever/port"
	"doc-retriever/utils/otel"
)

// IngestFilesUsecase turns an ordered list of source files into documents.
// The batch is all-or-nothing: the first failing file, in input order, aborts it.
type IngestFilesUsecase struct {
	parser      port.Parser
	concurrency int
	root        *SourceRoot
}

// IngestOption configures an IngestFilesUsecase.
type IngestOption func(*IngestFilesUsecase)

// WithSourceRoot rejects paths outside root before any file is opened.
func WithSourceRoot(root *SourceRoot) IngestOption {
	return func(u *IngestFilesUsecase) { u.root = root }
}

// NewIngestFilesUsecase parses files one at a time when concurrency <= 1.
func NewIngestFilesUsecase(parser port.Parser, concurrency int, opts ...IngestOption) *IngestFilesUsecase {
	if concurrency < 1 {
		concurrency = 1
	}
	u := &IngestFilesUsecase{
		parser:      parser,
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Execute returns the documents of every file concatenated in input order.
func (u *IngestFilesUsecase) Execute(ctx context.Context, paths []string) ([]domain.Document, error) {
	paths, err := u.resolve(paths)
	if err != nil {
		otel.RecordError(ctx, "ingest")
		return nil, err
	}

	var docs []domain.Document
	if u.concurrency == 1 || len(paths) < 2 {
		docs, err = u.sequential(ctx, paths)
	} else {
		docs, err = u.parallel(ctx, paths)
	}
	if err != nil {
		otel.RecordError(ctx, "ingest")
		return nil, err
	}
	otel.RecordParsed(ctx, len(docs))
	return docs, nil
}

func (u *IngestFilesUsecase) resolve(paths []string) ([]string, error) {
	if u.root == nil {
		return paths, nil
	}
	resolved := make([]string, len(paths))
	for i, p := range paths {
		r, err := u.root.Resolve(p)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}
	return resolved, nil
}

func (u *IngestFilesUsecase) sequential(ctx context.Context, paths []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parsed, err := u.parser.Parse(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
	}
	return docs, nil
}

func (u *IngestFilesUsecase) parallel(ctx context.Context, paths []string) ([]domain.Document, error) {
	// Each file gets its own context so a failure cancels only the files after it;
	// earlier files run to completion and may still report an earlier failure.
	fileCtxs := make([]context.Context, len(paths))
	cancels := make([]context.CancelFunc, len(paths))
	for i := range paths {
		fileCtxs[i], cancels[i] = context.WithCancel(ctx)
		defer cancels[i]()
	}

	results := make([][]domain.Document, len(paths))
	errs := make([]error, len(paths))

	var (
		mu     sync.Mutex
		failed = len(paths)
	)
	fail := func(i int, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs[i] = err
		if i >= failed {
			return
		}
		failed = i
		for _, c := range cancels[i+1:] {
			c()
		}
	}
	skipped := func(i int) bool {
		mu.Lock()
		defer mu.Unlock()
		return i > failed
	}

	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if skipped(i) {
				return nil
			}
			parsed, err := u.parser.Parse(fileCtxs[i], path)
			if err != nil {
				fail(i, err)
				return nil
			}
			results[i] = parsed
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed < len(paths) {
		return nil, errs[failed]
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	docs := make([]domain.Document, 0, total)
	for _, r := range results {
		docs = append(docs, r...)
	}
	return docs, nil
}
