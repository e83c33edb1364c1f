// Package readiness implements the wait_for_span readiness gate: poll a
// span source at a bounded cadence until a named span appears, or the
// gate's timeout elapses.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"clnrmgo/internal/clnrmerr"
	"clnrmgo/internal/span"
)

const (
	// DefaultTimeout is spec's 30s default when a service sets
	// wait_for_span without an explicit wait_for_span_timeout_secs.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the granularity ceiling named in spec: the
	// gate never polls more often than once per this interval.
	DefaultPollInterval = 500 * time.Millisecond
)

// Source is anything the gate can poll for newly observed spans. Stdout
// streams, OTLP/HTTP, and OTLP/gRPC sources all implement this the same
// way: return whatever new spans have arrived since the last call.
type Source interface {
	Poll(ctx context.Context) ([]span.Span, error)
}

// Gate polls a Source at a bounded cadence looking for a named span.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns a Gate polling no more often than pollInterval. A
// zero or negative interval falls back to DefaultPollInterval.
func NewGate(pollInterval time.Duration) *Gate {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Gate{limiter: rate.NewLimiter(rate.Every(pollInterval), 1)}
}

// WaitForSpan blocks until source yields a span named spanName, or
// timeout elapses (falling back to DefaultTimeout if timeout <= 0).
func (g *Gate) WaitForSpan(ctx context.Context, source Source, spanName string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		if err := g.limiter.Wait(waitCtx); err != nil {
			// The limiter refuses a wait that would overrun the deadline
			// before waitCtx itself expires, so only an explicit
			// cancellation of the caller's context counts as cancelled.
			if errors.Is(ctx.Err(), context.Canceled) {
				return fmt.Errorf("readiness: wait for span %q: %w", spanName, clnrmerr.ErrCancelled)
			}

			return fmt.Errorf("readiness: wait for span %q: %w", spanName, clnrmerr.ErrTimeout)
		}

		spans, err := source.Poll(waitCtx)
		if err != nil {
			return fmt.Errorf("readiness: poll for span %q: %w", spanName, err)
		}

		for _, s := range spans {
			if s.Name == spanName {
				return nil
			}
		}
	}
}
