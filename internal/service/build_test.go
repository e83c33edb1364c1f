package service

import (
	"errors"
	"testing"
	"time"

	"clnrmgo/internal/cache"
	"clnrmgo/internal/clnrmerr"
	"clnrmgo/internal/readiness"
)

func TestBuild_DefaultsToGenericContainer(t *testing.T) {
	plugin, err := Build(Spec{Alias: "sidecar"}, cache.NewContainerCache(), readiness.NewGate(time.Millisecond), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := plugin.(*GenericContainerPlugin); !ok {
		t.Errorf("expected *GenericContainerPlugin, got %T", plugin)
	}
}

func TestBuild_NetworkEndpointKind(t *testing.T) {
	plugin, err := Build(Spec{Alias: "ext", Plugin: "network_endpoint", Host: "127.0.0.1:1"}, cache.NewContainerCache(), nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := plugin.(*NetworkEndpointPlugin); !ok {
		t.Errorf("expected *NetworkEndpointPlugin, got %T", plugin)
	}
}

func TestBuild_UnknownPluginKindFails(t *testing.T) {
	_, err := Build(Spec{Alias: "x", Plugin: "nonsense"}, cache.NewContainerCache(), nil, nil)
	if !errors.Is(err, clnrmerr.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
}

func TestBuild_WaitForSpanWithoutSourceFails(t *testing.T) {
	spec := Spec{Alias: "app", WaitForSpan: "app.ready"}

	_, err := Build(spec, cache.NewContainerCache(), readiness.NewGate(time.Millisecond), nil)
	if !errors.Is(err, clnrmerr.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
}

func TestBuild_WaitForSpanWrapsInSpanReadinessPlugin(t *testing.T) {
	spec := Spec{Alias: "app", WaitForSpan: "app.ready", WaitForSpanTimeoutSecs: 5}
	src := &stubSource{yieldAt: 1, name: "app.ready"}

	plugin, err := Build(spec, cache.NewContainerCache(), readiness.NewGate(time.Millisecond), src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := plugin.(*SpanReadinessPlugin); !ok {
		t.Errorf("expected *SpanReadinessPlugin, got %T", plugin)
	}
}
