package otel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTelemetry(t *testing.T) (*OpenTelemetry, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	o, err := NewWithProviders(&OTelConfig{OTELEnabled: true, ServiceName: "test"}, tp, mp, nil)
	require.NoError(t, err)
	return o, recorder, reader
}

func TestSpans(t *testing.T) {
	o, recorder, _ := newRecordingTelemetry(t)

	ctx, span := o.StartSpan(context.Background(), "save", []attribute.KeyValue{attribute.String("table", "people")})
	AddAnnotation(ctx, "executing statement")
	o.RecordError(span, errors.New("write timeout"))
	o.EndSpan(span)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "save", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("table", "people"))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "write timeout", ended[0].Status().Description)

	var events []string
	for _, e := range ended[0].Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "executing statement")
}

func TestRecordMetrics(t *testing.T) {
	o, _, reader := newRecordingTelemetry(t)

	o.RecordMetrics(context.Background(), "save", time.Now().Add(-5*time.Millisecond), "insert", "ks", nil)
	o.RecordMetrics(context.Background(), "save", time.Now(), "insert", "ks", errors.New("boom"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]metricdata.Aggregation)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m.Data
	}
	require.Contains(t, names, "scylla_mapping/operation_count")
	require.Contains(t, names, "scylla_mapping/operation_latencies")

	sum, ok := names["scylla_mapping/operation_count"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
	for _, dp := range sum.DataPoints {
		assert.Equal(t, int64(1), dp.Value)
	}
}

func TestDisabled(t *testing.T) {
	o, shutdown, err := NewOpenTelemetry(context.Background(), &OTelConfig{OTELEnabled: false}, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, shutdown(context.Background())) }()

	ctx := context.Background()
	spanCtx, span := o.StartSpan(ctx, "noop", nil)
	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.IsRecording())
	o.RecordError(span, errors.New("ignored"))
	o.RecordMetrics(ctx, "noop", time.Now(), "select", "ks", nil)
	o.EndSpan(span)

	var nilTelemetry *OpenTelemetry
	_, span = nilTelemetry.StartSpan(ctx, "nil", nil)
	nilTelemetry.EndSpan(span)
}

func TestUnknownExporter(t *testing.T) {
	_, _, err := NewOpenTelemetry(context.Background(), &OTelConfig{OTELEnabled: true, ServiceName: "test", Exporter: "zipkin"}, nil)
	assert.EqualError(t, err, "unknown otel exporter 'zipkin'")
}
