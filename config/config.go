package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Retriever kinds understood by the retriever factory.
const (
	RetrieverKindNone        = "none"
	RetrieverKindBM25        = "bm25"
	RetrieverKindMeilisearch = "meilisearch"
)

type Config struct {
	Retriever     RetrieverConfig     `yaml:"retriever"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Meilisearch   MeilisearchConfig   `yaml:"meilisearch"`
	Chunker       ChunkerConfig       `yaml:"chunker"`
	Ingest        IngestConfig        `yaml:"ingest"`
	Search        SearchConfig        `yaml:"search"`
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
}

type RetrieverConfig struct {
	Kind      string  `yaml:"kind"`
	IndexName string  `yaml:"index_name"`
	K         int     `yaml:"k"`
	K1        float64 `yaml:"k1"`
	B         float64 `yaml:"b"`
	Refresh   bool    `yaml:"refresh"`
}

type ElasticsearchConfig struct {
	Addresses          []string      `yaml:"addresses"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	APIKey             string        `yaml:"api_key"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
}

type MeilisearchConfig struct {
	Host    string        `yaml:"host"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChunkerConfig struct {
	Tokenizer string `yaml:"tokenizer"`
	Encoding  string `yaml:"encoding"`
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"overlap"`
}

type IngestConfig struct {
	Concurrency int `yaml:"concurrency"`
	// Root confines ingested paths; relative paths are resolved against it.
	// Empty disables confinement.
	Root string `yaml:"root"`
}

type SearchConfig struct {
	MaxQueryBytes      int      `yaml:"max_query_bytes"`
	DisallowedPatterns []string `yaml:"disallowed_patterns"`
	KeepMarkup         bool     `yaml:"keep_markup"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type AuthConfig struct {
	ServiceSecret string `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Retriever: RetrieverConfig{
			Kind:      RetrieverKindBM25,
			IndexName: "documents",
			K:         10,
			K1:        2.0,
			B:         0.75,
			Refresh:   true,
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses: []string{"http://localhost:9200"},
			Timeout:   EngineTimeout,
		},
		Meilisearch: MeilisearchConfig{
			Host:    "http://localhost:7700",
			Timeout: EngineTimeout,
		},
		Chunker: ChunkerConfig{
			Tokenizer: "tiktoken",
			Encoding:  "r50k_base",
			ChunkSize: 1000,
			Overlap:   200,
		},
		Ingest: IngestConfig{
			Concurrency: 1,
			Root:        ".",
		},
		Search: SearchConfig{
			MaxQueryBytes: 1000,
		},
		HTTP: HTTPConfig{
			Addr:              HTTPAddr,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// RETRIEVER_CONFIG_FILE, and environment variables (highest precedence). A
// .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("RETRIEVER_CONFIG_FILE"); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"retriever_kind", cfg.Retriever.Kind,
		"index", cfg.Retriever.IndexName,
		"elasticsearch", strings.Join(cfg.Elasticsearch.Addresses, ","),
		"meilisearch_host", cfg.Meilisearch.Host,
	)
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Retriever.Kind = getEnvOrDefault("RETRIEVER_KIND", c.Retriever.Kind)
	c.Retriever.IndexName = getEnvOrDefault("RETRIEVER_INDEX", c.Retriever.IndexName)
	c.Retriever.K = envInt("RETRIEVER_K", c.Retriever.K, &errs)
	c.Retriever.K1 = envFloat("RETRIEVER_BM25_K1", c.Retriever.K1, &errs)
	c.Retriever.B = envFloat("RETRIEVER_BM25_B", c.Retriever.B, &errs)
	c.Retriever.Refresh = envBool("RETRIEVER_REFRESH", c.Retriever.Refresh, &errs)

	if v := getEnvOrDefault("ELASTICSEARCH_URLS", ""); v != "" {
		c.Elasticsearch.Addresses = splitList(v)
	}
	c.Elasticsearch.Username = getEnvOrDefault("ELASTICSEARCH_USERNAME", c.Elasticsearch.Username)
	c.Elasticsearch.Password = getEnvOrDefault("ELASTICSEARCH_PASSWORD", c.Elasticsearch.Password)
	c.Elasticsearch.APIKey = getEnvOrDefault("ELASTICSEARCH_API_KEY", c.Elasticsearch.APIKey)
	c.Elasticsearch.InsecureSkipVerify = envBool("ELASTICSEARCH_INSECURE_SKIP_VERIFY", c.Elasticsearch.InsecureSkipVerify, &errs)

	c.Meilisearch.Host = getEnvOrDefault("MEILISEARCH_HOST", c.Meilisearch.Host)
	c.Meilisearch.APIKey = getEnvOrDefault("MEILISEARCH_API_KEY", c.Meilisearch.APIKey)

	c.Chunker.Tokenizer = getEnvOrDefault("CHUNK_TOKENIZER", c.Chunker.Tokenizer)
	c.Chunker.Encoding = getEnvOrDefault("CHUNK_ENCODING", c.Chunker.Encoding)
	c.Chunker.ChunkSize = envInt("CHUNK_SIZE", c.Chunker.ChunkSize, &errs)
	c.Chunker.Overlap = envInt("CHUNK_OVERLAP", c.Chunker.Overlap, &errs)

	c.Ingest.Concurrency = envInt("INGEST_CONCURRENCY", c.Ingest.Concurrency, &errs)
	c.Ingest.Root = getEnvOrDefault("INGEST_ROOT", c.Ingest.Root)
	c.Search.MaxQueryBytes = envInt("SEARCH_MAX_QUERY_BYTES", c.Search.MaxQueryBytes, &errs)
	if v := getEnvOrDefault("SEARCH_DISALLOWED_PATTERNS", ""); v != "" {
		c.Search.DisallowedPatterns = splitList(v)
	}
	c.Search.KeepMarkup = envBool("SEARCH_KEEP_MARKUP", c.Search.KeepMarkup, &errs)
	c.HTTP.Addr = getEnvOrDefault("HTTP_ADDR", c.HTTP.Addr)
	c.Auth.ServiceSecret = getEnvOrDefault("SERVICE_SECRET", c.Auth.ServiceSecret)

	return errors.Join(errs...)
}

// Normalize canonicalises values that are matched case-insensitively.
func (c *Config) Normalize() {
	c.Retriever.Kind = strings.ToLower(strings.TrimSpace(c.Retriever.Kind))
}

// Validate normalises the configuration and reports every invalid field at once.
func (c *Config) Validate() error {
	c.Normalize()
	var errs []error

	if c.Retriever.IndexName == "" {
		errs = append(errs, errors.New("retriever.index_name must not be empty"))
	}
	if c.Retriever.K <= 0 {
		errs = append(errs, fmt.Errorf("retriever.k must be greater than 0, got %d", c.Retriever.K))
	}
	if c.Retriever.K1 < 0 {
		errs = append(errs, fmt.Errorf("retriever.k1 must be non-negative, got %v", c.Retriever.K1))
	}
	if c.Retriever.B < 0 || c.Retriever.B > 1 {
		errs = append(errs, fmt.Errorf("retriever.b must be within [0, 1], got %v", c.Retriever.B))
	}
	if c.Retriever.Kind == RetrieverKindBM25 && len(c.Elasticsearch.Addresses) == 0 {
		errs = append(errs, errors.New("elasticsearch.addresses must not be empty"))
	}
	if c.Chunker.ChunkSize <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		errs = append(errs, fmt.Errorf("chunker: need 0 <= overlap < chunk_size, got size=%d overlap=%d", c.Chunker.ChunkSize, c.Chunker.Overlap))
	}
	if c.Ingest.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("ingest.concurrency must be at least 1, got %d", c.Ingest.Concurrency))
	}
	if c.Search.MaxQueryBytes <= 0 {
		errs = append(errs, fmt.Errorf("search.max_query_bytes must be greater than 0, got %d", c.Search.MaxQueryBytes))
	}
	for _, p := range c.Search.DisallowedPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("search.disallowed_patterns: %w", err))
		}
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func envBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
