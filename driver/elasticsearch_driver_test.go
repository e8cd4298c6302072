package driver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   string
}

// mockTransport answers Elasticsearch client requests without a cluster.
type mockTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(req *http.Request, body string) (int, string)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}

	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Body:   body,
	})
	m.mu.Unlock()

	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	status, respBody := m.respond(req, body)
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(respBody)),
		Request:    req,
	}, nil
}

func newTestElasticsearchDriver(t *testing.T, respond func(*http.Request, string) (int, string)) (*ElasticsearchDriver, *mockTransport) {
	t.Helper()
	mt := &mockTransport{respond: respond}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{"http://es.test:9200"},
		Transport:    mt,
		DisableRetry: true,
	})
	require.NoError(t, err)
	return NewElasticsearchDriver(client, "documents", 2.0, 0.75), mt
}

func TestElasticsearchDriver_EnsureIndex_Exists(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(req *http.Request, _ string) (int, string) {
		return http.StatusOK, ""
	})

	require.NoError(t, d.EnsureIndex(context.Background()))
	require.Len(t, mt.requests, 1)
	assert.Equal(t, http.MethodHead, mt.requests[0].Method)
	assert.Equal(t, "/documents", mt.requests[0].Path)
}

func TestElasticsearchDriver_EnsureIndex_Creates(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(req *http.Request, _ string) (int, string) {
		if req.Method == http.MethodHead {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, `{"acknowledged":true,"index":"documents"}`
	})

	require.NoError(t, d.EnsureIndex(context.Background()))
	require.Len(t, mt.requests, 2)
	assert.Equal(t, http.MethodPut, mt.requests[1].Method)

	var body struct {
		Settings struct {
			Similarity map[string]struct {
				Type string  `json:"type"`
				K1   float64 `json:"k1"`
				B    float64 `json:"b"`
			} `json:"similarity"`
		} `json:"settings"`
		Mappings struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(mt.requests[1].Body), &body))

	sim := body.Settings.Similarity["custom_bm25"]
	assert.Equal(t, "BM25", sim.Type)
	assert.Equal(t, 2.0, sim.K1)
	assert.Equal(t, 0.75, sim.B)
	assert.Equal(t, "custom_bm25", body.Mappings.Properties["content"]["similarity"])
	assert.Equal(t, false, body.Mappings.Properties["metadata"]["enabled"])
}

func TestElasticsearchDriver_EnsureIndex_CreateRace(t *testing.T) {
	d, _ := newTestElasticsearchDriver(t, func(req *http.Request, _ string) (int, string) {
		if req.Method == http.MethodHead {
			return http.StatusNotFound, ""
		}
		return http.StatusBadRequest, `{"error":{"type":"resource_already_exists_exception","reason":"index [documents] already exists"},"status":400}`
	})

	assert.NoError(t, d.EnsureIndex(context.Background()))
}

func TestElasticsearchDriver_BulkIndex(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(req *http.Request, _ string) (int, string) {
		return http.StatusOK, `{"took":3,"errors":true,"items":[
			{"index":{"_index":"documents","_id":"a","status":201}},
			{"index":{"_index":"documents","_id":"b","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}
		]}`
	})

	results, err := d.BulkIndex(context.Background(), []IndexEntryDriver{
		{ID: "a", Content: "alpha", Metadata: map[string]any{"url": "http://x"}},
		{ID: "b", Content: "beta"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Failed())
	assert.Equal(t, "a", results[0].ID)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Error, "mapper_parsing_exception")

	require.Len(t, mt.requests, 1)
	req := mt.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/documents/_bulk", req.Path)

	var lines []map[string]any
	sc := bufio.NewScanner(strings.NewReader(req.Body))
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)
	assert.Equal(t, map[string]any{"index": map[string]any{"_index": "documents", "_id": "a"}}, lines[0])
	assert.Equal(t, map[string]any{"content": "alpha", "metadata": map[string]any{"url": "http://x"}}, lines[1])
	assert.Equal(t, map[string]any{"content": "beta", "metadata": map[string]any{}}, lines[3])
}

func TestElasticsearchDriver_BulkIndex_Empty(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{}`
	})

	results, err := d.BulkIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, mt.requests)
}

func TestElasticsearchDriver_BulkIndex_ItemCountMismatch(t *testing.T) {
	d, _ := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{"errors":false,"items":[]}`
	})

	_, err := d.BulkIndex(context.Background(), []IndexEntryDriver{{ID: "a", Content: "alpha"}})
	var driverErr *DriverError
	require.True(t, errors.As(err, &driverErr))
	assert.Equal(t, "BulkIndex", driverErr.Op)
}

func TestElasticsearchDriver_Refresh(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{"_shards":{"total":1,"successful":1,"failed":0}}`
	})

	require.NoError(t, d.Refresh(context.Background()))
	require.Len(t, mt.requests, 1)
	assert.Equal(t, "/documents/_refresh", mt.requests[0].Path)
}

func TestElasticsearchDriver_Search(t *testing.T) {
	d, mt := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{"hits":{"total":{"value":2},"hits":[
			{"_id":"1","_score":1.4,"_source":{"content":"alpha beta gamma","metadata":{"url":"http://x"}}},
			{"_id":"2","_score":0.3,"_source":{"content":"beta","metadata":{}}}
		]}}`
	})

	entries, err := d.Search(context.Background(), "beta", 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, IndexEntryDriver{ID: "1", Content: "alpha beta gamma", Metadata: map[string]any{"url": "http://x"}}, entries[0])
	assert.Equal(t, "2", entries[1].ID)

	req := mt.requests[0]
	assert.Equal(t, "/documents/_search", req.Path)
	assert.Equal(t, []string{"3"}, req.Query["size"])
	assert.JSONEq(t, `{"query":{"match":{"content":"beta"}}}`, req.Body)
}

func TestElasticsearchDriver_Search_NoHits(t *testing.T) {
	d, _ := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`
	})

	entries, err := d.Search(context.Background(), "nothing", 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestElasticsearchDriver_ErrorStatus(t *testing.T) {
	d, _ := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusNotFound, `{"error":{"type":"index_not_found_exception","reason":"no such index [documents]"},"status":404}`
	})

	_, err := d.Search(context.Background(), "beta", 10)
	var driverErr *DriverError
	require.True(t, errors.As(err, &driverErr))
	assert.Equal(t, "Search", driverErr.Op)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}

func TestElasticsearchDriver_DeadlineExceeded(t *testing.T) {
	d, _ := newTestElasticsearchDriver(t, func(*http.Request, string) (int, string) {
		return http.StatusOK, `{}`
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := d.Search(ctx, "beta", 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
