package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSourceLoadError_Unwrap(t *testing.T) {
	cause := errors.New("bad xref table")
	err := error(&SourceLoadError{Path: "/tmp/a.pdf", Err: cause})

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(SourceLoadError, cause) = false")
	}
	if !strings.Contains(err.Error(), "/tmp/a.pdf") {
		t.Errorf("Error() = %q, want path", err.Error())
	}
}

func TestRetrievalBackendError_WrapsBulkFailure(t *testing.T) {
	bulk := &BulkIndexError{FailedIDs: []string{"a", "b"}}
	err := error(&RetrievalBackendError{Op: "AddDocuments", Err: bulk})

	var got *BulkIndexError
	if !errors.As(err, &got) {
		t.Fatal("errors.As(*BulkIndexError) = false")
	}
	if len(got.FailedIDs) != 2 {
		t.Errorf("FailedIDs = %v", got.FailedIDs)
	}
	if !strings.Contains(err.Error(), "a, b") {
		t.Errorf("Error() = %q, want failed ids listed", err.Error())
	}
}

func TestRetrievalBackendError_PropagatesDeadline(t *testing.T) {
	err := error(&RetrievalBackendError{Op: "Search", Err: context.DeadlineExceeded})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("deadline should be visible through RetrievalBackendError")
	}
}

func TestUnsupportedFormatError_Message(t *testing.T) {
	err := &UnsupportedFormatError{Path: "notes.docx", Extension: ".docx"}
	if got := err.Error(); !strings.Contains(got, "notes.docx") || !strings.Contains(got, ".docx") {
		t.Errorf("Error() = %q", got)
	}
}

func TestMalformedInputError_Message(t *testing.T) {
	err := &MalformedInputError{Path: "data.json", Record: 3, Field: "url"}
	want := `malformed input data.json: record 3: missing required field "url"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
