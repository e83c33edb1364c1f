package cleanroom

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"clnrmgo/internal/scenario"
	"clnrmgo/internal/service"
	"clnrmgo/internal/span"
	"clnrmgo/internal/transport"
)

type fakePlugin struct {
	name string
}

func (f *fakePlugin) Name() string { return f.name }

func (f *fakePlugin) Start(context.Context) (service.Handle, error) {
	return service.Handle{ID: f.name + "-1", ServiceName: f.name, Metadata: map[string]string{"k": "v"}}, nil
}

func (f *fakePlugin) Stop(context.Context, service.Handle) error { return nil }

func (f *fakePlugin) HealthCheck(context.Context, service.Handle) (service.HealthStatus, error) {
	return service.Healthy, nil
}

func TestNew_GeneratesDistinctSessionIDsAcrossInstances(t *testing.T) {
	a := New(nil)
	b := New(nil)

	if a.SessionID == "" || b.SessionID == "" {
		t.Fatal("expected non-empty session ids")
	}

	if a.SessionID == b.SessionID {
		t.Errorf("expected distinct session ids, both got %q", a.SessionID)
	}
}

func TestNew_HonorsSessionIDOverride(t *testing.T) {
	t.Setenv("CLNRM_SESSION_ID", "fixed-session")

	env := New(nil)
	if env.SessionID != "fixed-session" {
		t.Errorf("SessionID = %q, want fixed-session", env.SessionID)
	}
}

func TestEnvironment_StartServiceThenResolve(t *testing.T) {
	env := New(nil)

	handle, err := env.StartService(context.Background(), "db", &fakePlugin{name: "db"})
	if err != nil {
		t.Fatalf("StartService: %v", err)
	}

	resolved, ok := env.Resolve("db")
	if !ok {
		t.Fatal("expected Resolve to find the started handle")
	}

	if resolved.ID != handle.ID {
		t.Errorf("resolved.ID = %q, want %q", resolved.ID, handle.ID)
	}
}

func TestEnvironment_ResolveUnknownAliasFails(t *testing.T) {
	env := New(nil)

	if _, ok := env.Resolve("nope"); ok {
		t.Error("expected Resolve to fail for an alias never started")
	}
}

func TestEnvironment_ImplementsScenarioServiceResolver(t *testing.T) {
	var _ scenario.ServiceResolver = New(nil)
}

func TestEnvironment_RecordRunAccumulatesMetrics(t *testing.T) {
	env := New(nil)

	env.RecordRun(scenario.RunResult{Steps: []scenario.StepResult{{Label: "a"}}}, 10*time.Millisecond)
	env.RecordRun(scenario.RunResult{Steps: []scenario.StepResult{{Label: "b", Failed: true}}}, 5*time.Millisecond)

	m := env.Metrics()
	if m.TestsExecuted != 2 {
		t.Errorf("TestsExecuted = %d, want 2", m.TestsExecuted)
	}

	if m.TestsPassed != 1 {
		t.Errorf("TestsPassed = %d, want 1", m.TestsPassed)
	}

	if m.TestsFailed != 1 {
		t.Errorf("TestsFailed = %d, want 1", m.TestsFailed)
	}

	if m.TotalDuration != 15*time.Millisecond {
		t.Errorf("TotalDuration = %v, want 15ms", m.TotalDuration)
	}
}

func TestEnvironment_ForwardSpansIsNoOpWithoutTransport(t *testing.T) {
	env := New(nil)

	env.ForwardSpans(context.Background(), []span.Span{{Name: "a"}})
}

func TestEnvironment_StartSpanTransportConfiguresSpanSource(t *testing.T) {
	env := New(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := env.StartSpanTransport(context.Background(), "127.0.0.1:0", "", transport.ExporterNone, "", logger)
	if err != nil {
		t.Fatalf("StartSpanTransport: %v", err)
	}

	if env.SpanSource == nil {
		t.Fatal("expected SpanSource to be set")
	}

	if err := env.ShutdownSpanTransport(context.Background()); err != nil {
		t.Fatalf("ShutdownSpanTransport: %v", err)
	}
}

func TestEnvironment_ShutdownStopsActiveServices(t *testing.T) {
	env := New(nil)

	if _, err := env.StartService(context.Background(), "db", &fakePlugin{name: "db"}); err != nil {
		t.Fatalf("StartService: %v", err)
	}

	if err := env.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
