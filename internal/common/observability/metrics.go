package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quote-workers/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	matchScores    otelmetric.Int64Histogram
}

type Option func(*options)

type options struct {
	tracing    bool
	processors []sdktrace.SpanProcessor
}

// WithTracing enables the SDK tracer provider. Without it Tracer returns a
// no-op tracer.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

// WithSpanProcessor attaches a span processor; implies WithTracing(true).
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracing = true
		o.processors = append(o.processors, p)
	}
}

func New(serviceName string, log logger.Logger, opts ...Option) *Observability {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	if o.tracing {
		tpOpts := make([]sdktrace.TracerProviderOption, 0, len(o.processors))
		for _, p := range o.processors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
		}
		obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(obs.tracerProvider)
		obs.tracer = obs.tracerProvider.Tracer(serviceName)
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter, otel metrics disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return obs
	}

	obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(obs.meterProvider)
	obs.meter = obs.meterProvider.Meter(serviceName)

	obs.jobCounter, _ = obs.meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	obs.jobDuration, _ = obs.meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	obs.matchScores, _ = obs.meter.Int64Histogram(
		"matching.score",
		otelmetric.WithDescription("Total match score of returned companies"),
	)

	return obs
}

// Tracer returns the tracer used around proposal transactions.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return o.tracer
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordMatchScore(ctx context.Context, total int) {
	if o != nil && o.matchScores != nil {
		o.matchScores.Record(ctx, int64(total))
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
