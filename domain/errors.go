package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyContent is returned when a parser or caller produces a document without text.
	ErrEmptyContent = errors.New("document content cannot be empty")
	// ErrDuplicateDocumentID is returned when one batch carries the same id twice.
	ErrDuplicateDocumentID = errors.New("duplicate document id in batch")
	// ErrInvalidChunkParams is returned for a chunk size/overlap pair that cannot make progress.
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")
	// ErrInvalidQuery is returned for queries rejected before reaching the engine.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrPathOutsideRoot is returned for a source path that resolves outside the ingest root.
	ErrPathOutsideRoot = errors.New("path is outside the ingest root")
)

// UnsupportedFormatError reports a file whose extension no parser is registered for.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s (%s)", e.Path, e.Extension)
}

// MalformedInputError reports a structured record that is missing a required field.
type MalformedInputError struct {
	Path   string
	Record int
	Field  string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed input %s: record %d", e.Path, e.Record)
	if e.Field != "" {
		msg += fmt.Sprintf(": missing required field %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// SourceLoadError wraps a read or decode failure for a source file.
type SourceLoadError struct {
	Path string
	Err  error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.Path, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	return e.Err
}

// UnknownRetrieverTypeError reports a retriever kind the factory does not know.
type UnknownRetrieverTypeError struct {
	Kind string
}

func (e *UnknownRetrieverTypeError) Error() string {
	return fmt.Sprintf("unknown retriever type: %q", e.Kind)
}

// NotImplementedFeatureError marks an extension point that exists but has no implementation.
type NotImplementedFeatureError struct {
	Feature string
	Path    string
}

func (e *NotImplementedFeatureError) Error() string {
	if e.Path == "" {
		return e.Feature + ": not implemented"
	}
	return fmt.Sprintf("%s: not implemented (%s)", e.Feature, e.Path)
}

// RetrievalBackendError represents a failure talking to the search engine.
type RetrievalBackendError struct {
	Op  string
	Err error
}

func (e *RetrievalBackendError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RetrievalBackendError) Unwrap() error {
	return e.Err
}

// BulkIndexError aggregates the entries the engine rejected in one bulk write.
type BulkIndexError struct {
	FailedIDs []string
	Reasons   map[string]string
}

func (e *BulkIndexError) Error() string {
	return fmt.Sprintf("bulk index rejected %d document(s): %s", len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}
