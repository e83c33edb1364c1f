// Package cleanroom provides the top-level facade a run is built
// around: it owns the service registry, the container cache, session
// metrics and the per-process session id that attests hermetic
// isolation between runs.
package cleanroom

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clnrmgo/internal/cache"
	"clnrmgo/internal/config"
	"clnrmgo/internal/readiness"
	"clnrmgo/internal/scenario"
	"clnrmgo/internal/service"
	"clnrmgo/internal/span"
	"clnrmgo/internal/transport"
)

// Metrics accumulates session-wide counters, surfaced at the end of a
// run for the digest/report writer.
type Metrics struct {
	TestsExecuted     int
	TestsPassed       int
	TestsFailed       int
	TotalDuration     time.Duration
	ContainersCreated int64
	ContainersReused  int64
}

// Environment is the facade scenario scheduling and service lifecycle
// are built on. A single process may construct several Environments
// (e.g. parallel test suites); each gets a distinct SessionID.
//
// Cyclic ownership avoidance: Environment owns Registry and Cache;
// neither holds a reference back to the Environment. Anything a
// plugin needs from the environment is passed into Start/Stop as a
// parameter, never captured.
type Environment struct {
	SessionID string

	Registry *service.Registry
	Cache    *cache.ContainerCache
	Gate     *readiness.Gate

	// SpanSource is the readiness.Source passed to service.Build for
	// any [service.*] entry that sets wait_for_span; nil until
	// StartSpanTransport configures one. Stdout-based readiness
	// bypasses this entirely, building its own readiness.StdoutSource
	// from the container's own output stream.
	SpanSource readiness.Source

	transport *transport.HTTPIngest
	forwarder *transport.Forwarder

	mu      sync.RWMutex
	handles map[string]service.Handle
	metrics Metrics
}

// New constructs an Environment with a fresh session id. CLNRM_SESSION_ID
// overrides the generated UUID when set, for reproducing a specific
// run's identity (e.g. in CI log correlation).
func New(logger *slog.Logger) *Environment {
	sessionID := config.GetEnvStr("CLNRM_SESSION_ID", "")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &Environment{
		SessionID: sessionID,
		Registry:  service.NewRegistry(logger),
		Cache:     cache.NewContainerCache(),
		Gate:      readiness.NewGate(50 * time.Millisecond),
		handles:   make(map[string]service.Handle),
	}
}

// StartService registers plugin under alias (its own Name()) and
// starts it, recording the resulting handle so later Resolve calls —
// and scenario steps that reference the alias — can find it.
func (e *Environment) StartService(ctx context.Context, alias string, plugin service.Plugin) (service.Handle, error) {
	if err := e.Registry.Register(plugin); err != nil {
		return service.Handle{}, err
	}

	handle, err := e.Registry.Start(ctx, alias)
	if err != nil {
		return service.Handle{}, err
	}

	e.mu.Lock()
	e.handles[alias] = handle
	e.mu.Unlock()

	return handle, nil
}

// StartSpanTransport starts the OTLP/HTTP ingest listener at addr and,
// when exporterKind is not ExporterNone, a Forwarder relaying every
// ingested span onward to endpoint. token enables bearer-token auth on
// the listener when non-empty (spec.md §4.8's OTEL_TOKEN). The
// resulting source is recorded on e.SpanSource for service.Build calls
// that follow.
func (e *Environment) StartSpanTransport(
	ctx context.Context,
	addr, token string,
	exporterKind transport.ExporterKind,
	endpoint string,
	logger *slog.Logger,
) error {
	auth, err := transport.NewTokenAuth(token)
	if err != nil {
		return err
	}

	ing := transport.NewHTTPIngest(addr, auth, logger)
	if err := ing.Start(ctx); err != nil {
		return err
	}

	fwd, err := transport.NewForwarder(ctx, exporterKind, endpoint, false)
	if err != nil {
		return err
	}

	e.transport = ing
	e.forwarder = fwd
	e.SpanSource = ing

	return nil
}

// ShutdownSpanTransport stops the ingest listener and flushes the
// forwarder, if either was started. Safe to call even when
// StartSpanTransport was never called.
func (e *Environment) ShutdownSpanTransport(ctx context.Context) error {
	if e.forwarder != nil {
		if err := e.forwarder.Shutdown(ctx); err != nil {
			return err
		}
	}

	if e.transport != nil {
		return e.transport.Shutdown(ctx)
	}

	return nil
}

// Resolve implements scenario.ServiceResolver: it looks up the Handle
// recorded for alias by a prior StartService call.
func (e *Environment) Resolve(alias string) (service.Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h, ok := e.handles[alias]

	return h, ok
}

var _ scenario.ServiceResolver = (*Environment)(nil)

// RecordRun folds one scenario's RunResult into the session metrics.
func (e *Environment) RecordRun(result scenario.RunResult, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.TestsExecuted++
	e.metrics.TotalDuration += duration

	if result.Passed() {
		e.metrics.TestsPassed++
	} else {
		e.metrics.TestsFailed++
	}

	created, reused := e.Cache.Stats()
	e.metrics.ContainersCreated = created
	e.metrics.ContainersReused = reused
}

// Metrics returns a snapshot of the session's accumulated metrics.
func (e *Environment) Metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.metrics
}

// ForwardSpans relays spans through the configured Forwarder, if any.
// A no-op when StartSpanTransport was never called or ran with
// ExporterNone.
func (e *Environment) ForwardSpans(ctx context.Context, spans []span.Span) {
	e.forwarder.Forward(ctx, spans)
}

// Shutdown stops every active service and terminates every cached
// container. Service stop failures are logged by the Registry and not
// returned; the first container terminate error, if any, is returned
// once every cached container has been attempted.
func (e *Environment) Shutdown(ctx context.Context) error {
	e.Registry.StopAll(ctx)

	return e.Cache.TerminateAll(ctx)
}
