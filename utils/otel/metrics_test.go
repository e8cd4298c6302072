package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestRecordHelpers_NoopWithoutInit(t *testing.T) {
	Metrics = nil
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordParsed(ctx, 3)
		RecordIndexed(ctx, 3)
		RecordError(ctx, "search")
		RecordBatchDuration(ctx, time.Second)
		RecordSearchDuration(ctx, time.Second)
	})
}

func TestInitMetrics_RecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		Metrics = nil
	})

	require.NoError(t, InitMetrics())
	ctx := context.Background()

	RecordParsed(ctx, 4)
	RecordIndexed(ctx, 2)
	RecordIndexed(ctx, 0)
	RecordError(ctx, "bulk_index")
	RecordSearchDuration(ctx, 250*time.Millisecond)

	data := collect(t, reader)

	parsed, ok := data["doc_retriever_documents_parsed_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, parsed.DataPoints, 1)
	assert.Equal(t, int64(4), parsed.DataPoints[0].Value)

	indexed, ok := data["doc_retriever_documents_indexed_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, indexed.DataPoints, 1)
	assert.Equal(t, int64(2), indexed.DataPoints[0].Value)

	errs, ok := data["doc_retriever_errors_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	op, _ := errs.DataPoints[0].Attributes.Value("operation")
	assert.Equal(t, "bulk_index", op.AsString())

	search, ok := data["doc_retriever_search_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, search.DataPoints, 1)
	assert.Equal(t, uint64(1), search.DataPoints[0].Count)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "0.5")
	t.Setenv("OTEL_SERVICE_NAME", "")

	cfg := ConfigFromEnv()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0.5, cfg.SampleRatio)
	assert.Equal(t, "doc-retriever", cfg.ServiceName)

	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "7")
	assert.Equal(t, 1.0, ConfigFromEnv().SampleRatio)
}

func TestConfigFromEnv_MetricInterval(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318/")
	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "2500")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, 2500*time.Millisecond, cfg.MetricInterval)

	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "-1")
	assert.Equal(t, 15*time.Second, ConfigFromEnv().MetricInterval)
}

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
