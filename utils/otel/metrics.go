package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every instrument below.
const MeterName = "doc-retriever"

// Metrics holds all OTel metric instruments for doc-retriever.
// It stays nil until InitMetrics runs; the Record helpers are no-ops then.
var Metrics *RetrieverMetrics

// RetrieverMetrics contains all metric instruments.
type RetrieverMetrics struct {
	ParsedTotal    metric.Int64Counter
	IndexedTotal   metric.Int64Counter
	ErrorsTotal    metric.Int64Counter
	BatchDuration  metric.Float64Histogram
	SearchDuration metric.Float64Histogram
}

// InitMetrics initializes all metric instruments.
func InitMetrics() error {
	meter := otel.Meter(MeterName)

	parsedTotal, err := meter.Int64Counter("doc_retriever_documents_parsed_total",
		metric.WithDescription("Total number of documents produced by parsers"),
	)
	if err != nil {
		return err
	}

	indexedTotal, err := meter.Int64Counter("doc_retriever_documents_indexed_total",
		metric.WithDescription("Total number of documents added to a retriever"),
	)
	if err != nil {
		return err
	}

	errorsTotal, err := meter.Int64Counter("doc_retriever_errors_total",
		metric.WithDescription("Total number of failed operations"),
	)
	if err != nil {
		return err
	}

	batchDuration, err := meter.Float64Histogram("doc_retriever_batch_duration_seconds",
		metric.WithDescription("Ingest and index batch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	searchDuration, err := meter.Float64Histogram("doc_retriever_search_duration_seconds",
		metric.WithDescription("Retrieval request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	Metrics = &RetrieverMetrics{
		ParsedTotal:    parsedTotal,
		IndexedTotal:   indexedTotal,
		ErrorsTotal:    errorsTotal,
		BatchDuration:  batchDuration,
		SearchDuration: searchDuration,
	}

	return nil
}

func RecordParsed(ctx context.Context, n int) {
	if Metrics == nil || n == 0 {
		return
	}
	Metrics.ParsedTotal.Add(ctx, int64(n))
}

func RecordIndexed(ctx context.Context, n int) {
	if Metrics == nil || n == 0 {
		return
	}
	Metrics.IndexedTotal.Add(ctx, int64(n))
}

func RecordError(ctx context.Context, operation string) {
	if Metrics == nil {
		return
	}
	Metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func RecordBatchDuration(ctx context.Context, d time.Duration) {
	if Metrics == nil {
		return
	}
	Metrics.BatchDuration.Record(ctx, d.Seconds())
}

func RecordSearchDuration(ctx context.Context, d time.Duration) {
	if Metrics == nil {
		return
	}
	Metrics.SearchDuration.Record(ctx, d.Seconds())
}
