// internal/common/observability/observability.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	opCounter      otelmetric.Int64Counter
	opDuration     otelmetric.Float64Histogram
}

func New(serviceName, jaegerEndpoint string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	opCounter, _ := meter.Int64Counter(
		"lifecycle.operations",
		otelmetric.WithDescription("Number of lifecycle operations processed"),
	)

	opDuration, _ := meter.Float64Histogram(
		"lifecycle.operation.duration",
		otelmetric.WithDescription("Lifecycle operation duration"),
		otelmetric.WithUnit("ms"),
	)

	obs := &Observability{
		meterProvider: provider,
		meter:         meter,
		opCounter:     opCounter,
		opDuration:    opDuration,
	}

	if jaegerEndpoint != "" {
		traceExporter, err := jaeger.New(
			jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)),
		)
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
			otel.SetTracerProvider(tp)
			obs.tracerProvider = tp
			obs.tracer = tp.Tracer(serviceName)
		}
	}

	return obs
}

// StartSpan opens a span around one orchestration. The returned context
// carries the span; callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name)
}

func (o *Observability) RecordOperation(ctx context.Context, operation, status string) {
	if o.opCounter != nil {
		o.opCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordDuration(ctx context.Context, operation string, d time.Duration) {
	if o.opDuration != nil {
		o.opDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter provider: %v", err)
		}
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer provider: %v", err)
		}
	}
}
