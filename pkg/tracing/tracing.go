package tracing

import (
	"context"
	"time"

	"github.com/modelq-io/modelq/config"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/modelq-io/modelq"

type Tracer struct {
	tp *sdktrace.TracerProvider
}

func New(cfg *config.TracingConfig) (*Tracer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tp, err := SetupOTEL(cfg)
	if err != nil {
		return nil, err
	}

	return &Tracer{tp: tp}, nil
}

func (t *Tracer) Stop() error {
	if t == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.tp.Shutdown(ctx)
}

// Start starts a span on the globally registered tracer provider. It is
// a no-op when tracing is not configured.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, opts...)
}
