package transport

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	oteltrace "go.opentelemetry.io/otel/trace"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"clnrmgo/internal/span"
)

// ExporterKind is the `[otel].exporter` config value (spec.md §4.8's
// OTEL_TRACES_EXPORTER): which backend ingested spans get relayed to
// for human-facing visualization, independent of the validator engine
// which always sees the raw ingested spans regardless of this choice.
type ExporterKind string

const (
	ExporterOTLP   ExporterKind = "otlp"
	ExporterStdout ExporterKind = "stdout"
	ExporterNone   ExporterKind = "none"
)

// Forwarder relays ingested spans onto a secondary OTEL backend. This
// is the span-transport write path spec.md §7 singles out as the one
// thing in the system that retries: the otlp exporters' own bounded
// exponential backoff (otlptracehttp.WithRetry /
// otlptracegrpc.WithRetry), not a hand-rolled loop.
type Forwarder struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// NewForwarder builds the exporter named by kind. useGRPC selects
// between the HTTP and gRPC OTLP clients when kind is otlp; it is
// ignored otherwise. A nil *Forwarder (ExporterNone) is valid and
// Forward becomes a no-op.
func NewForwarder(ctx context.Context, kind ExporterKind, endpoint string, useGRPC bool) (*Forwarder, error) {
	if kind == ExporterNone || kind == "" {
		return nil, nil
	}

	exporter, err := newSpanExporter(ctx, kind, endpoint, useGRPC)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))

	return &Forwarder{provider: provider, tracer: provider.Tracer("clnrmgo/transport")}, nil
}

func newSpanExporter(ctx context.Context, kind ExporterKind, endpoint string, useGRPC bool) (sdktrace.SpanExporter, error) {
	switch kind {
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}

		return exp, nil
	case ExporterOTLP:
		if useGRPC {
			exp, err := otlptracegrpc.New(ctx,
				otlptracegrpc.WithEndpointURL(endpoint),
				otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{Enabled: true, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second, MaxElapsedTime: 30 * time.Second}),
			)
			if err != nil {
				return nil, fmt.Errorf("otlp grpc exporter: %w", err)
			}

			return exp, nil
		}

		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: true, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second, MaxElapsedTime: 30 * time.Second}),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp http exporter: %w", err)
		}

		return exp, nil
	default:
		return nil, fmt.Errorf("unknown exporter kind %q", kind)
	}
}

// Forward replays ingested spans through the configured exporter. A
// nil receiver (no forwarder configured) is a no-op, so callers don't
// need to branch on whether forwarding is enabled.
func (f *Forwarder) Forward(ctx context.Context, spans []span.Span) {
	if f == nil {
		return
	}

	for _, s := range spans {
		_, otelSpan := f.tracer.Start(ctx, s.Name,
			oteltrace.WithTimestamp(time.Unix(0, s.StartUnixNano)),
			oteltrace.WithSpanKind(s.Kind),
			oteltrace.WithAttributes(attrsToKeyValues(s.Attributes)...),
		)

		otelSpan.SetStatus(s.Status, "")

		for _, ev := range s.Events {
			otelSpan.AddEvent(ev.Name, oteltrace.WithAttributes(attrsToKeyValues(ev.Attributes)...))
		}

		otelSpan.End(oteltrace.WithTimestamp(time.Unix(0, s.EndUnixNano)))
	}
}

// Shutdown flushes the batcher and closes the underlying exporter. A
// nil receiver is a no-op.
func (f *Forwarder) Shutdown(ctx context.Context) error {
	if f == nil {
		return nil
	}

	return f.provider.Shutdown(ctx)
}

func attrsToKeyValues(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		out = append(out, attribute.String(k, span.AttrString(v)))
	}

	return out
}
