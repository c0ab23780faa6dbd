package tracing

import (
	"context"
	"fmt"

	"github.com/modelq-io/modelq"
	"github.com/modelq-io/modelq/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newExporter(cfg config.OpentelemetryTracing) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case config.OtlpProtocolHTTP:
		return otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpointURL(cfg.Endpoint))
	case config.OtlpProtocolGRPC:
		return otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure())
	}
	return nil, fmt.Errorf("unknown protocol: %s", cfg.Protocol)
}

func SetupOTEL(cfg *config.TracingConfig) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(cfg.Opentelemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %v", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("modelq")),
		resource.WithAttributes(semconv.ServiceVersionKey.String(modelq.VERSION)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}
