package transport

import (
	"context"
	"sync"

	"clnrmgo/internal/span"
)

// buffer accumulates spans delivered by either listener between Poll
// calls. Both HTTPIngest and GRPCIngest append to one of these from
// their own request-handling goroutine.
//
// It keeps two views of the same stream: pending (drained by Poll,
// the same incremental-read contract StdoutSource uses for its
// residual buffer, so readiness.Gate's wait_for_span loop only ever
// sees spans new since its last poll) and all (append-only, returned
// by All for the final validation pass — the gate draining pending
// while it waits on one service's span must never make that span
// invisible to the engine that validates the whole run afterward).
type buffer struct {
	mu      sync.Mutex
	pending []span.Span
	all     []span.Span
}

func (b *buffer) append(spans []span.Span) {
	if len(spans) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, spans...)
	b.all = append(b.all, spans...)
}

// Poll implements readiness.Source: it drains and returns only spans
// appended since the last Poll call.
func (b *buffer) Poll(_ context.Context) ([]span.Span, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil, nil
	}

	drained := b.pending
	b.pending = nil

	return drained, nil
}

// All returns every span received since the listener started, for the
// final validation pass over the complete run.
func (b *buffer) All() []span.Span {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]span.Span(nil), b.all...)
}
