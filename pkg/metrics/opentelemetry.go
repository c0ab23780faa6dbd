package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/modelq-io/modelq"
	"github.com/modelq-io/modelq/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	prefix = "modelq."
)

func newHTTPExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(endpoint),
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func newGRPCExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	}
	return otlpmetricgrpc.New(context.Background(), opts...)
}

func SetupOpentelemetry(attributes map[string]string, cfg config.OpentelemetryMetrics, metrics *Metrics) error {
	var err error
	var exporter metric.Exporter
	switch cfg.Protocol {
	case config.OtlpProtocolHTTP:
		exporter, err = newHTTPExporter(cfg.Endpoint)
	case config.OtlpProtocolGRPC:
		exporter, err = newGRPCExporter(cfg.Endpoint)
	}
	if err != nil {
		return fmt.Errorf("failed to setup exporter: %v", err)
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, attribute.String(name, value))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("modelq")),
		resource.WithAttributes(semconv.ServiceVersionKey.String(modelq.VERSION)),
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return fmt.Errorf("failed to build resource: %w", err)
	}

	opts := []metric.PeriodicReaderOption{
		metric.WithInterval(metrics.Interval),
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, opts...)),
	)
	otel.SetMeterProvider(meterProvider)

	meter := otel.Meter("github.com/modelq-io/modelq")

	// runtime metrics
	metrics.RuntimeGoroutine = NewGauge(meter, prefix+"runtime.num_goroutine", "")
	metrics.RuntimeAlloc = NewGauge(meter, prefix+"runtime.alloc_bytes", "")
	metrics.RuntimeSys = NewGauge(meter, prefix+"runtime.sys_bytes", "")
	metrics.RuntimeHeapObjects = NewGauge(meter, prefix+"runtime.heap_objects", "")
	metrics.RuntimePauseTotalNs = NewGauge(meter, prefix+"runtime.pause_total_ns", "")
	metrics.RuntimeGC = NewGauge(meter, prefix+"runtime.num_gc", "")

	// proxy metrics
	metrics.RequestTotalCounter = NewCounter(meter, prefix+"request.total", "")
	metrics.RequestFailedCounter = NewCounter(meter, prefix+"request.failed", "")
	metrics.RequestDurationHistogram = NewHistogram(meter, prefix+"request.duration", "", "s")

	// scheduler metrics
	metrics.BatchTotalCounter = NewCounter(meter, prefix+"batch.total", "")
	metrics.BatchMergedCounter = NewCounter(meter, prefix+"batch.merged.total", "")
	metrics.BatchSizeHistogram = NewHistogram(meter, prefix+"batch.size", "", "1")
	metrics.BatchDurationHistogram = NewHistogram(meter, prefix+"batch.duration", "", "s")
	metrics.QueuePendingGauge = NewGauge(meter, prefix+"queue.pending", "")
	metrics.QueueWaitDurationHistogram = NewHistogram(meter, prefix+"queue.wait.duration", "", "s")

	return nil
}

func StopOpentelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return otel.GetMeterProvider().(*metric.MeterProvider).Shutdown(ctx)
}
