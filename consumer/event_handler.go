package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"doc-retriever/domain"
	"doc-retriever/logger"
	"doc-retriever/port"
	"doc-retriever/usecase"
)

const (
	EventIngestFiles  = "IngestFiles"
	EventAddDocuments = "AddDocuments"
)

// ErrInvalidPayload marks events that can never succeed; they are acknowledged and dropped.
var ErrInvalidPayload = errors.New("invalid event payload")

// IngestFilesPayload asks for a batch of files to be parsed and indexed.
type IngestFilesPayload struct {
	Paths   []string `json:"paths"`
	Refresh *bool    `json:"refresh,omitempty"`
}

// AddDocumentsPayload carries ready-made documents.
type AddDocumentsPayload struct {
	Documents []struct {
		ID       string         `json:"id"`
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	} `json:"documents"`
	Refresh *bool `json:"refresh,omitempty"`
}

// DocumentIndexer is implemented by usecase.IndexFilesUsecase.
type DocumentIndexer interface {
	Execute(ctx context.Context, paths []string, opts ...port.AddOption) (*usecase.IndexResult, error)
	AddDocuments(ctx context.Context, docs []domain.Document, opts ...port.AddOption) (*usecase.IndexResult, error)
}

// IndexEventHandler indexes one event per call. A failed batch leaves the
// message pending so it is delivered again.
type IndexEventHandler struct {
	indexer DocumentIndexer
	logger  *slog.Logger
}

func NewIndexEventHandler(indexer DocumentIndexer, logger *slog.Logger) *IndexEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexEventHandler{
		indexer: indexer,
		logger:  logger,
	}
}

// HandleEvent dispatches on the event type. Unknown types are skipped.
func (h *IndexEventHandler) HandleEvent(ctx context.Context, event Event) error {
	ctx = logger.WithBatchID(ctx, event.EventID)

	switch event.EventType {
	case EventIngestFiles:
		return h.handleIngestFiles(ctx, event)
	case EventAddDocuments:
		return h.handleAddDocuments(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}
}

func (h *IndexEventHandler) handleIngestFiles(ctx context.Context, event Event) error {
	var payload IngestFilesPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, event.EventType, err)
	}
	if len(payload.Paths) == 0 {
		return fmt.Errorf("%w: %s: no paths", ErrInvalidPayload, event.EventType)
	}

	result, err := h.indexer.Execute(ctx, payload.Paths, refreshOptions(payload.Refresh)...)
	if err != nil {
		return classify(err)
	}

	h.logger.InfoContext(ctx, "ingest event indexed",
		"event_id", event.EventID,
		"files", result.FileCount,
		"documents", result.DocumentCount,
	)
	return nil
}

func (h *IndexEventHandler) handleAddDocuments(ctx context.Context, event Event) error {
	var payload AddDocumentsPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, event.EventType, err)
	}

	docs := make([]domain.Document, 0, len(payload.Documents))
	for _, d := range payload.Documents {
		docs = append(docs, domain.Document{ID: d.ID, Content: d.Content, Metadata: d.Metadata})
	}

	result, err := h.indexer.AddDocuments(ctx, docs, refreshOptions(payload.Refresh)...)
	if err != nil {
		return classify(err)
	}

	h.logger.InfoContext(ctx, "document event indexed",
		"event_id", event.EventID,
		"documents", result.DocumentCount,
	)
	return nil
}

// classify wraps errors that redelivery cannot fix with ErrInvalidPayload.
func classify(err error) error {
	var (
		unsupported    *domain.UnsupportedFormatError
		malformed      *domain.MalformedInputError
		notImplemented *domain.NotImplementedFeatureError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrDuplicateDocumentID),
		errors.Is(err, domain.ErrPathOutsideRoot),
		errors.As(err, &unsupported),
		errors.As(err, &malformed),
		errors.As(err, &notImplemented):
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	default:
		return err
	}
}

func refreshOptions(refresh *bool) []port.AddOption {
	if refresh == nil {
		return nil
	}
	return []port.AddOption{port.WithRefresh(*refresh)}
}
