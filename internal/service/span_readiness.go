package service

import (
	"context"
	"fmt"
	"time"

	"clnrmgo/internal/readiness"
)

// SpanReadinessPlugin decorates an inner Plugin: after the inner plugin
// starts, it additionally blocks until spanName is observed on source,
// so a scenario's first step never races the service's own startup
// instrumentation.
type SpanReadinessPlugin struct {
	inner       Plugin
	gate        *readiness.Gate
	source      readiness.Source
	spanName    string
	timeoutSecs int
}

// NewSpanReadinessPlugin wraps inner, blocking Start on gate observing
// spanName via source before returning inner's handle. timeoutSecs <= 0
// falls back to the gate's own default timeout.
func NewSpanReadinessPlugin(inner Plugin, gate *readiness.Gate, source readiness.Source, spanName string, timeoutSecs int) *SpanReadinessPlugin {
	return &SpanReadinessPlugin{
		inner:       inner,
		gate:        gate,
		source:      source,
		spanName:    spanName,
		timeoutSecs: timeoutSecs,
	}
}

func (p *SpanReadinessPlugin) Name() string { return p.inner.Name() }

func (p *SpanReadinessPlugin) Start(ctx context.Context) (Handle, error) {
	handle, err := p.inner.Start(ctx)
	if err != nil {
		return Handle{}, err
	}

	timeout := time.Duration(p.timeoutSecs) * time.Second

	if err := p.gate.WaitForSpan(ctx, p.source, p.spanName, timeout); err != nil {
		return Handle{}, fmt.Errorf("span readiness %q: %w", p.inner.Name(), err)
	}

	return handle, nil
}

func (p *SpanReadinessPlugin) Stop(ctx context.Context, handle Handle) error {
	return p.inner.Stop(ctx, handle)
}

func (p *SpanReadinessPlugin) HealthCheck(ctx context.Context, handle Handle) (HealthStatus, error) {
	return p.inner.HealthCheck(ctx, handle)
}
