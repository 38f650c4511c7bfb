package tracing

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ProviderConfig configures the process-wide tracer provider.
type ProviderConfig struct {
	ServiceName string
	Enabled     bool
	SampleRatio float64
	OTLP        exporters.OTLPConfig
}

// Provider owns the SDK tracer provider so it can be flushed on shutdown.
type Provider struct {
	provider *sdktrace.TracerProvider
	logger   ectologger.Logger
}

// NewProvider installs a tracer provider and registers its tracer for StartSpan.
// When tracing is disabled spans are still created but never exported.
func NewProvider(ctx context.Context, cfg ProviderConfig, logger ectologger.Logger) (*Provider, error) {
	var exporter sdktrace.SpanExporter = &exporters.LogExporter{Logger: logger}
	if cfg.Enabled {
		otlp, err := exporters.NewOTLPExporter(ctx, cfg.OTLP)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporter = otlp
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(tp.Tracer(cfg.ServiceName))

	logger.WithFields(map[string]any{
		"service":  cfg.ServiceName,
		"exporter": cfg.OTLP.Protocol,
		"enabled":  cfg.Enabled,
	}).Info("tracing initialized")

	return &Provider{provider: tp, logger: logger}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.provider.Shutdown(ctx); err != nil {
		p.logger.WithError(err).Error("failed to shut down tracer provider")
		return err
	}
	return nil
}
