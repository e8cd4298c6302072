package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-retriever/config"
	"doc-retriever/domain"
)

type routeRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *routeRecorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req.Method+" "+req.URL.Path)
}

func (r *routeRecorder) has(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func fastConnect(t *testing.T) {
	t.Helper()
	retries, delay := config.EngineConnectRetries, config.EngineConnectDelay
	config.EngineConnectRetries, config.EngineConnectDelay = 2, time.Millisecond
	t.Cleanup(func() {
		config.EngineConnectRetries, config.EngineConnectDelay = retries, delay
	})
}

func newElasticsearchServer(t *testing.T) (*httptest.Server, *routeRecorder) {
	t.Helper()
	rec := &routeRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead && r.URL.Path == "/documents":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/documents":
			_, _ = w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true,"index":"documents"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"unexpected","reason":"unexpected route"},"status":404}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newMeilisearchServer(t *testing.T) (*httptest.Server, *routeRecorder) {
	t.Helper()
	rec := &routeRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/health":
			_, _ = w.Write([]byte(`{"status":"available"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/indexes/documents":
			_, _ = w.Write([]byte(`{"uid":"documents","primaryKey":"id","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`))
		case r.URL.Path == "/indexes/documents/settings/searchable-attributes":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"taskUid":3,"indexUid":"documents","status":"enqueued","type":"settingsUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`))
		case strings.HasPrefix(r.URL.Path, "/tasks/"):
			_, _ = w.Write([]byte(`{"uid":3,"indexUid":"documents","status":"succeeded","type":"settingsUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"unexpected route","code":"not_found","type":"invalid_request","link":""}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestNewRetriever_None(t *testing.T) {
	for _, kind := range []string{"", "none", " NONE "} {
		t.Run("kind="+kind, func(t *testing.T) {
			cfg := config.Default()
			cfg.Retriever.Kind = kind

			r, health, err := NewRetriever(context.Background(), cfg)
			require.NoError(t, err)
			assert.Nil(t, r)
			assert.Nil(t, health)
		})
	}
}

func TestNewRetriever_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Retriever.Kind = "faiss"

	r, _, err := NewRetriever(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, r)

	var unknown *domain.UnknownRetrieverTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "faiss", unknown.Kind)
}

func TestNewRetriever_BM25(t *testing.T) {
	fastConnect(t)
	srv, rec := newElasticsearchServer(t)

	cfg := config.Default()
	cfg.Retriever.Kind = config.RetrieverKindBM25
	cfg.Elasticsearch.Addresses = []string{srv.URL}

	r, health, err := NewRetriever(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, health)

	assert.True(t, rec.has("HEAD /documents"))
	assert.True(t, rec.has("PUT /documents"), "missing index is created")
	assert.NoError(t, health.Ping(context.Background()))
}

func TestNewRetriever_Meilisearch(t *testing.T) {
	fastConnect(t)
	srv, rec := newMeilisearchServer(t)

	cfg := config.Default()
	cfg.Retriever.Kind = config.RetrieverKindMeilisearch
	cfg.Retriever.K1 = 1.2
	cfg.Meilisearch.Host = srv.URL

	r, health, err := NewRetriever(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, health)
	assert.True(t, rec.has("GET /health"))
	assert.True(t, rec.has("GET /indexes/documents"))
}

func TestNewRetriever_EngineUnreachable(t *testing.T) {
	fastConnect(t)
	srv, _ := newElasticsearchServer(t)
	addr := srv.URL
	srv.Close()

	cfg := config.Default()
	cfg.Retriever.Kind = config.RetrieverKindBM25
	cfg.Elasticsearch.Addresses = []string{addr}

	r, _, err := NewRetriever(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
