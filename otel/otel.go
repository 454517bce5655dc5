/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	instrumentationScope = "github.com/giangbb/scylla-mapping"

	ExporterOTLP = "otlp"
	ExporterGCP  = "gcp"

	attributeMethod    = "method"
	attributeQueryType = "query_type"
	attributeKeyspace  = "keyspace"
	attributeStatus    = "status"
)

// OTelConfig holds the settings of the trace and metric pipelines.
type OTelConfig struct {
	OTELEnabled      bool
	ServiceName      string
	ServiceVersion   string
	Exporter         string
	ProjectID        string
	CredentialsFile  string
	TracerEndpoint   string
	MetricEndpoint   string
	MetricInterval   time.Duration
	TraceSampleRatio float64
}

// OpenTelemetry records spans and operation metrics. With OTELEnabled unset every method is a no-op.
type OpenTelemetry struct {
	Config *OTelConfig

	tracer       trace.Tracer
	requestCount metric.Int64Counter
	latency      metric.Float64Histogram
	logger       *zap.Logger
}

// NewOpenTelemetry sets up the exporters of config and registers the providers globally. The
// returned function flushes and stops the pipelines.
func NewOpenTelemetry(ctx context.Context, config *OTelConfig, logger *zap.Logger) (*OpenTelemetry, func(context.Context) error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noShutdown := func(context.Context) error { return nil }
	if config == nil || !config.OTELEnabled {
		o, err := NewWithProviders(&OTelConfig{OTELEnabled: false}, nil, nil, logger)
		return o, noShutdown, err
	}

	res, err := buildResource(ctx, config)
	if err != nil {
		return nil, noShutdown, err
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}

	tp, err := newTracerProvider(ctx, config, res)
	if err != nil {
		return nil, noShutdown, err
	}
	shutdowns = append(shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var mp metric.MeterProvider
	if config.MetricEndpoint != "" {
		sdkMeterProvider, err := newMeterProvider(ctx, config, res)
		if err != nil {
			_ = shutdown(ctx)
			return nil, noShutdown, err
		}
		shutdowns = append(shutdowns, sdkMeterProvider.Shutdown)
		otel.SetMeterProvider(sdkMeterProvider)
		mp = sdkMeterProvider
	}

	o, err := NewWithProviders(config, tp, mp, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, noShutdown, err
	}
	logger.Info("OpenTelemetry enabled",
		zap.String("exporter", config.Exporter),
		zap.String("traceEndpoint", config.TracerEndpoint),
		zap.String("metricEndpoint", config.MetricEndpoint))
	return o, shutdown, nil
}

// NewWithProviders builds the instruments on the given providers. Nil providers are replaced by
// no-op ones.
func NewWithProviders(config *OTelConfig, tp trace.TracerProvider, mp metric.MeterProvider, logger *zap.Logger) (*OpenTelemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	meter := mp.Meter(instrumentationScope)
	requestCount, err := meter.Int64Counter("scylla_mapping/operation_count",
		metric.WithDescription("Number of mapping operations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	latency, err := meter.Float64Histogram("scylla_mapping/operation_latencies",
		metric.WithDescription("Latency of mapping operations"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}
	return &OpenTelemetry{
		Config:       config,
		tracer:       tp.Tracer(instrumentationScope),
		requestCount: requestCount,
		latency:      latency,
		logger:       logger,
	}, nil
}

func buildResource(ctx context.Context, config *OTelConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(config.ServiceName)}
	if config.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(config.ServiceVersion))
	}
	opts := []resource.Option{resource.WithTelemetrySDK(), resource.WithAttributes(attrs...)}
	if config.Exporter == ExporterGCP {
		opts = append(opts, resource.WithDetectors(gcp.NewDetector()))
	}
	res, err := resource.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, config *OTelConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error
	switch config.Exporter {
	case ExporterGCP:
		opts := []texporter.Option{texporter.WithProjectID(config.ProjectID)}
		if config.CredentialsFile != "" {
			opts = append(opts, texporter.WithTraceClientOptions([]option.ClientOption{option.WithCredentialsFile(config.CredentialsFile)}))
		}
		exporter, err = texporter.New(opts...)
	case ExporterOTLP, "":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(config.TracerEndpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	default:
		return nil, fmt.Errorf("unknown otel exporter '%s'", config.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.TraceSampleRatio))),
	), nil
}

func newMeterProvider(ctx context.Context, config *OTelConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(config.MetricEndpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.MetricInterval))
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	), nil
}

func (o *OpenTelemetry) enabled() bool {
	return o != nil && o.Config != nil && o.Config.OTELEnabled
}

// StartSpan starts a span named name as a child of the span in ctx.
func (o *OpenTelemetry) StartSpan(ctx context.Context, name string, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	if !o.enabled() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *OpenTelemetry) EndSpan(span trace.Span) {
	if !o.enabled() {
		return
	}
	span.End()
}

// RecordError marks span as failed. Nil errors are ignored.
func (o *OpenTelemetry) RecordError(span trace.Span, err error) {
	if !o.enabled() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordMetrics counts one operation and records its latency since startTime.
func (o *OpenTelemetry) RecordMetrics(ctx context.Context, method string, startTime time.Time, queryType string, keyspace string, err error) {
	if !o.enabled() {
		return
	}
	status := "OK"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String(attributeMethod, method),
		attribute.String(attributeQueryType, queryType),
		attribute.String(attributeKeyspace, keyspace),
		attribute.String(attributeStatus, status),
	)
	o.requestCount.Add(ctx, 1, attrs)
	o.latency.Record(ctx, float64(time.Since(startTime).Microseconds())/1000, attrs)
}

// AddAnnotation adds an event to the span in ctx.
func AddAnnotation(ctx context.Context, event string) {
	trace.SpanFromContext(ctx).AddEvent(event)
}

// AddAnnotationWithAttr adds an event with attributes to the span in ctx.
func AddAnnotationWithAttr(ctx context.Context, event string, attrs []attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(attrs...))
}
