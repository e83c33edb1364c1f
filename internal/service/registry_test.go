package service

import (
	"context"
	"errors"
	"testing"

	"clnrmgo/internal/clnrmerr"
)

type fakePlugin struct {
	name       string
	startCalls int
	stopCalls  int
	health     HealthStatus
	startErr   error
}

func (f *fakePlugin) Name() string { return f.name }

func (f *fakePlugin) Start(context.Context) (Handle, error) {
	f.startCalls++

	if f.startErr != nil {
		return Handle{}, f.startErr
	}

	return Handle{ID: f.name + "-1", ServiceName: f.name, Metadata: map[string]string{}}, nil
}

func (f *fakePlugin) Stop(context.Context, Handle) error {
	f.stopCalls++

	return nil
}

func (f *fakePlugin) HealthCheck(context.Context, Handle) (HealthStatus, error) {
	return f.health, nil
}

func TestRegistry_RegisterDuplicateFails(t *testing.T) {
	r := NewRegistry(nil)

	p := &fakePlugin{name: "postgres"}

	if err := r.Register(p); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := r.Register(p)
	if !errors.Is(err, clnrmerr.ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegistry_StartUnregisteredFails(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Start(context.Background(), "missing")
	if !errors.Is(err, clnrmerr.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
}

func TestRegistry_StartStopLifecycle(t *testing.T) {
	r := NewRegistry(nil)

	p := &fakePlugin{name: "postgres", health: Healthy}
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}

	handle, err := r.Start(context.Background(), "postgres")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	statuses := r.HealthAll(context.Background())
	if statuses[handle.ID] != Healthy {
		t.Errorf("expected healthy status, got %v", statuses[handle.ID])
	}

	if err := r.Stop(context.Background(), handle.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if p.stopCalls != 1 {
		t.Errorf("expected plugin.Stop called once, got %d", p.stopCalls)
	}

	statuses = r.HealthAll(context.Background())
	if len(statuses) != 0 {
		t.Errorf("expected no active handles after stop, got %v", statuses)
	}
}

func TestRegistry_StopAbsentHandleSucceedsSilently(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Stop(context.Background(), "does-not-exist"); err != nil {
		t.Fatalf("expected silent success stopping an absent handle, got %v", err)
	}
}

func TestRegistry_StopDoesNotUnregisterPlugin(t *testing.T) {
	r := NewRegistry(nil)

	p := &fakePlugin{name: "postgres", health: Healthy}
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}

	handle, err := r.Start(context.Background(), "postgres")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := r.Stop(context.Background(), handle.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if _, err := r.Start(context.Background(), "postgres"); err != nil {
		t.Fatalf("expected plugin still registered and startable after stop: %v", err)
	}
}

func TestRegistry_StopAllIsBestEffort(t *testing.T) {
	r := NewRegistry(nil)

	p := &fakePlugin{name: "kafka", health: Healthy}
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := r.Start(context.Background(), "kafka"); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.StopAll(context.Background())

	if p.stopCalls != 1 {
		t.Errorf("expected one stop call, got %d", p.stopCalls)
	}
}
