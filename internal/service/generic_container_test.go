package service

import (
	"context"
	"testing"

	"clnrmgo/internal/cache"
)

func TestGenericContainerPlugin_StartAndHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	spec := Spec{
		Alias: "echo",
		Image: "alpine:3.20",
		Args:  []string{"sleep", "30"},
	}

	plugin := NewGenericContainerPlugin(spec, cache.NewContainerCache())

	ctx := context.Background()

	handle, err := plugin.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if handle.ServiceName != "echo" {
		t.Errorf("ServiceName = %q, want echo", handle.ServiceName)
	}

	status, err := plugin.HealthCheck(ctx, handle)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	if status != Healthy {
		t.Errorf("HealthCheck with no configured port = %v, want Healthy", status)
	}
}

func TestGenericContainerPlugin_NameMatchesAlias(t *testing.T) {
	plugin := NewGenericContainerPlugin(Spec{Alias: "sidecar"}, cache.NewContainerCache())

	if plugin.Name() != "sidecar" {
		t.Errorf("Name() = %q, want sidecar", plugin.Name())
	}
}
