package service

import (
	"context"
	"testing"

	"clnrmgo/internal/cache"
)

func TestBrokerContainerPlugin_StartResolvesBrokerAndHealthChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	plugin := NewBrokerContainerPlugin(Spec{Alias: "broker"}, cache.NewContainerCache())

	ctx := context.Background()

	handle, err := plugin.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if handle.Metadata["broker"] == "" {
		t.Fatal("expected broker address in handle metadata")
	}

	status, err := plugin.HealthCheck(ctx, handle)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	if status != Healthy {
		t.Errorf("HealthCheck = %v, want Healthy", status)
	}
}

func TestBrokerContainerPlugin_HealthCheckFailsWithoutBrokerAddress(t *testing.T) {
	plugin := NewBrokerContainerPlugin(Spec{Alias: "broker"}, cache.NewContainerCache())

	_, err := plugin.HealthCheck(context.Background(), Handle{ServiceName: "broker"})
	if err == nil {
		t.Error("expected error for handle with no broker address")
	}
}
