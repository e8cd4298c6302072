package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"doc-retriever/domain"
)

// JSONParser reads a JSON array of structured records and yields one document per record.
type JSONParser struct{}

func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

func (p *JSONParser) Parse(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.SourceLoadError{Path: path, Err: err}
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &domain.SourceLoadError{Path: path, Err: fmt.Errorf("decode records: %w", err)}
	}

	docs := make([]domain.Document, 0, len(records))
	for i, fields := range records {
		record, err := decodeRecord(fields)
		if err != nil {
			var fe *fieldError
			if errors.As(err, &fe) && (fe.err == nil || errors.Is(fe.err, errNull)) {
				return nil, &domain.MalformedInputError{Path: path, Record: i, Field: fe.field, Err: fe.err}
			}
			return nil, &domain.MalformedInputError{Path: path, Record: i, Err: err}
		}

		doc, err := record.ToDocument()
		if err != nil {
			return nil, &domain.MalformedInputError{Path: path, Record: i, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	if e.err == nil {
		return "missing required field " + strconv.Quote(e.field)
	}
	return e.field + ": " + e.err.Error()
}

func decodeRecord(fields map[string]json.RawMessage) (domain.StructuredRecord, error) {
	for _, name := range domain.RequiredRecordFields {
		if _, ok := fields[name]; !ok {
			return domain.StructuredRecord{}, &fieldError{field: name}
		}
	}

	var (
		record domain.StructuredRecord
		err    error
	)
	if record.ID, err = decodeID(fields["id"]); err != nil {
		return record, &fieldError{field: "id", err: err}
	}
	if record.Text, err = decodeString(fields["text"], true); err != nil {
		return record, &fieldError{field: "text", err: err}
	}
	if title, ok := fields["title"]; ok {
		if record.Title, err = decodeString(title, false); err != nil {
			return record, &fieldError{field: "title", err: err}
		}
	}
	if record.References, err = decodeAny(fields["references"]); err != nil {
		return record, &fieldError{field: "references", err: err}
	}
	if record.Updated, err = decodeAny(fields["updated"]); err != nil {
		return record, &fieldError{field: "updated", err: err}
	}
	if record.URL, err = decodeAny(fields["url"]); err != nil {
		return record, &fieldError{field: "url", err: err}
	}
	return record, nil
}

var errNull = errors.New("must not be null")

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeID accepts string and numeric ids. Numbers keep their literal form.
func decodeID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errNull
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("must be a string or a number")
	}
	return n.String(), nil
}

func decodeString(raw json.RawMessage, required bool) (string, error) {
	if isNull(raw) {
		if required {
			return "", errNull
		}
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("must be a string")
	}
	return s, nil
}

func decodeAny(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
