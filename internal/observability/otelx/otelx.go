// Package otelx wires OpenTelemetry tracing for reviewbot runs.
package otelx

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bakkerme/reviewbot/internal/config"
	"github.com/bakkerme/reviewbot/internal/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	protocolGRPC = "grpc"
	protocolHTTP = "http/protobuf"
	tracerName   = "reviewbot"
)

// Init installs a global tracer provider when tracing is enabled. The returned shutdown
// function flushes pending spans; it is nil when tracing is disabled.
func Init(ctx context.Context, logger *slog.Logger, cfg config.OTelEnvConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "reviewbot"
	}
	protocol := normalizeProtocol(cfg.Protocol)
	endpoint := endpointFor(protocol, cfg.Endpoint)

	exp, err := newExporter(ctx, protocol, endpoint, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("otel initialized",
		"service_name", serviceName,
		"otlp_endpoint", endpoint,
		"otlp_protocol", protocol,
		"sample_ratio", cfg.SampleRatio,
	)
	return tp.Shutdown, nil
}

// Start opens a span on the global tracer, tagged with the run id carried by ctx.
// With no provider installed this is a no-op span.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if runID := core.RunIDFromContext(ctx); runID != "" {
		attrs = append(attrs, attribute.String("run.id", runID))
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func newExporter(ctx context.Context, protocol, endpoint string, cfg config.OTelEnvConfig) (*otlptrace.Exporter, error) {
	switch protocol {
	case protocolHTTP:
		opts := []otlptracehttp.Option{}
		if strings.Contains(endpoint, "://") {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		} else {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	case protocolGRPC:
		if strings.Contains(endpoint, "://") {
			u, err := url.Parse(endpoint)
			if err != nil {
				return nil, fmt.Errorf("parse OTEL_EXPORTER_OTLP_ENDPOINT: %w", err)
			}
			endpoint = u.Host
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTEL_EXPORTER_OTLP_PROTOCOL %q (expected grpc or http/protobuf)", protocol)
	}
}

func normalizeProtocol(protocol string) string {
	switch v := strings.ToLower(strings.TrimSpace(protocol)); v {
	case "":
		return protocolGRPC
	case "http":
		return protocolHTTP
	default:
		return v
	}
}

func endpointFor(protocol, endpoint string) string {
	if v := strings.TrimSpace(endpoint); v != "" {
		return v
	}
	if protocol == protocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}
