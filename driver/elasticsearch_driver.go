package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const bm25SimilarityName = "custom_bm25"

// ElasticsearchDriver talks to a single Elasticsearch index whose content
// field is scored with a BM25 similarity configured at creation time.
type ElasticsearchDriver struct {
	client *elasticsearch.Client
	index  string
	k1     float64
	b      float64
}

func NewElasticsearchDriver(client *elasticsearch.Client, indexName string, k1, b float64) *ElasticsearchDriver {
	return &ElasticsearchDriver{
		client: client,
		index:  indexName,
		k1:     k1,
		b:      b,
	}
}

func (d *ElasticsearchDriver) IndexName() string {
	return d.index
}

// Ping checks that the cluster answers.
func (d *ElasticsearchDriver) Ping(ctx context.Context) error {
	res, err := d.client.Ping(d.client.Ping.WithContext(ctx))
	if err != nil {
		return &DriverError{Op: "Ping", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &DriverError{Op: "Ping", Err: responseError(res)}
	}
	return nil
}

// indexSettings renders the body used to create the index.
func (d *ElasticsearchDriver) indexSettings() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"default": map[string]any{"type": "standard"},
				},
			},
			"similarity": map[string]any{
				bm25SimilarityName: map[string]any{
					"type": "BM25",
					"k1":   d.k1,
					"b":    d.b,
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"content": map[string]any{
					"type":       "text",
					"similarity": bm25SimilarityName,
				},
				"metadata": map[string]any{
					"type":    "object",
					"enabled": false,
				},
			},
		},
	}
}

// EnsureIndex creates the index with its BM25 settings unless it already exists.
// An existing index keeps whatever settings it was created with.
func (d *ElasticsearchDriver) EnsureIndex(ctx context.Context) error {
	res, err := d.client.Indices.Exists([]string{d.index}, d.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: err}
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("unexpected status %d checking index", res.StatusCode)}
	}

	body, err := json.Marshal(d.indexSettings())
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: err}
	}

	res, err = d.client.Indices.Create(d.index,
		d.client.Indices.Create.WithContext(ctx),
		d.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		errResp := decodeErrorResponse(res.Body)
		// Another writer created it between the two calls.
		if errResp.Error.Type == "resource_already_exists_exception" {
			return nil
		}
		return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("create index: status %d: %s", res.StatusCode, errResp.reason())}
	}
	return nil
}

// BulkIndex writes all entries in one _bulk request and reports the engine's
// verdict for each entry in input order.
func (d *ElasticsearchDriver) BulkIndex(ctx context.Context, entries []IndexEntryDriver) ([]BulkItemResult, error) {
	if len(entries) == 0 {
		return []BulkItemResult{}, nil
	}

	body, err := encodeBulkBody(d.index, entries)
	if err != nil {
		return nil, &DriverError{Op: "BulkIndex", Err: err}
	}

	res, err := d.client.Bulk(bytes.NewReader(body),
		d.client.Bulk.WithContext(ctx),
		d.client.Bulk.WithIndex(d.index),
	)
	if err != nil {
		return nil, &DriverError{Op: "BulkIndex", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, &DriverError{Op: "BulkIndex", Err: responseError(res)}
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &DriverError{Op: "BulkIndex", Err: fmt.Errorf("decode bulk response: %w", err)}
	}
	if len(parsed.Items) != len(entries) {
		return nil, &DriverError{Op: "BulkIndex", Err: fmt.Errorf("bulk response has %d items for %d entries", len(parsed.Items), len(entries))}
	}

	results := make([]BulkItemResult, len(parsed.Items))
	for i, item := range parsed.Items {
		op := item["index"]
		result := BulkItemResult{ID: op.ID, Status: op.Status}
		if op.Error != nil {
			result.Error = op.Error.Type + ": " + op.Error.Reason
		}
		results[i] = result
	}
	return results, nil
}

func (d *ElasticsearchDriver) Refresh(ctx context.Context) error {
	res, err := d.client.Indices.Refresh(
		d.client.Indices.Refresh.WithContext(ctx),
		d.client.Indices.Refresh.WithIndex(d.index),
	)
	if err != nil {
		return &DriverError{Op: "Refresh", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &DriverError{Op: "Refresh", Err: responseError(res)}
	}
	return nil
}

// Search runs a match query on content and returns up to limit hits in score order.
func (d *ElasticsearchDriver) Search(ctx context.Context, query string, limit int) ([]IndexEntryDriver, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"match": map[string]any{"content": query},
		},
	})
	if err != nil {
		return nil, &DriverError{Op: "Search", Err: err}
	}

	res, err := d.client.Search(
		d.client.Search.WithContext(ctx),
		d.client.Search.WithIndex(d.index),
		d.client.Search.WithBody(bytes.NewReader(body)),
		d.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, &DriverError{Op: "Search", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, &DriverError{Op: "Search", Err: responseError(res)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &DriverError{Op: "Search", Err: fmt.Errorf("decode search response: %w", err)}
	}

	entries := make([]IndexEntryDriver, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		entry := hit.Source
		entry.ID = hit.ID
		entries = append(entries, entry)
	}
	return entries, nil
}

type bulkAction struct {
	Index bulkActionMeta `json:"index"`
}

type bulkActionMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

func encodeBulkBody(index string, entries []IndexEntryDriver) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(bulkAction{Index: bulkActionMeta{Index: index, ID: e.ID}}); err != nil {
			return nil, err
		}
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}

type bulkResponse struct {
	Errors bool                           `json:"errors"`
	Items  []map[string]bulkItemOperation `json:"items"`
}

type bulkItemOperation struct {
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Error  *errorCause `json:"error,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string           `json:"_id"`
			Source IndexEntryDriver `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error  errorCause `json:"error"`
	Status int        `json:"status"`
}

func (e errorResponse) reason() string {
	if e.Error.Type == "" {
		return "unknown error"
	}
	return e.Error.Type + ": " + e.Error.Reason
}

func decodeErrorResponse(r io.Reader) errorResponse {
	var e errorResponse
	_ = json.NewDecoder(r).Decode(&e)
	return e
}

func responseError(res *esapi.Response) error {
	return fmt.Errorf("status %d: %s", res.StatusCode, decodeErrorResponse(res.Body).reason())
}
