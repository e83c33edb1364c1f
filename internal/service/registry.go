package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"clnrmgo/internal/clnrmerr"
)

// Registry is the name-keyed plugin lifecycle manager: register plugins
// by name, start/stop instances, and snapshot health across every
// active handle. Locking follows the rule that no operation holds the
// registry lock while awaiting a plugin call — only while mutating the
// maps themselves.
type Registry struct {
	mu sync.RWMutex

	plugins map[string]Plugin
	active  map[string]activeEntry

	logger *slog.Logger
}

type activeEntry struct {
	pluginName string
	handle     Handle
}

// NewRegistry returns an empty registry. A nil logger falls back to
// slog.Default(), matching the teacher's server wiring.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		plugins: make(map[string]Plugin),
		active:  make(map[string]activeEntry),
		logger:  logger,
	}
}

// Register adds plugin under its own Name(). Only one registration per
// name is allowed.
func (r *Registry) Register(plugin Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := plugin.Name()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("register plugin %q: %w", name, clnrmerr.ErrDuplicateRegistration)
	}

	r.plugins[name] = plugin

	return nil
}

// Start starts the named plugin and records the resulting handle in the
// active set, keyed by the handle's own ID.
func (r *Registry) Start(ctx context.Context, name string) (Handle, error) {
	r.mu.RLock()
	plugin, ok := r.plugins[name]
	r.mu.RUnlock()

	if !ok {
		return Handle{}, fmt.Errorf("start service %q: %w", name, clnrmerr.ErrUnresolvedReference)
	}

	handle, err := plugin.Start(ctx)
	if err != nil {
		return Handle{}, fmt.Errorf("start service %q: %w", name, err)
	}

	r.mu.Lock()
	r.active[handle.ID] = activeEntry{pluginName: name, handle: handle}
	r.mu.Unlock()

	return handle, nil
}

// Stop stops the handle identified by handleID. It succeeds silently if
// handleID is already absent from the active set.
func (r *Registry) Stop(ctx context.Context, handleID string) error {
	r.mu.Lock()
	entry, ok := r.active[handleID]
	if ok {
		delete(r.active, handleID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	r.mu.RLock()
	plugin, pluginOK := r.plugins[entry.pluginName]
	r.mu.RUnlock()

	if !pluginOK {
		return fmt.Errorf("stop service handle %q: %w", handleID, clnrmerr.ErrUnresolvedReference)
	}

	if err := plugin.Stop(ctx, entry.handle); err != nil {
		return fmt.Errorf("stop service handle %q: %w", handleID, err)
	}

	return nil
}

// HealthAll snapshots health for every active handle.
func (r *Registry) HealthAll(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	entries := make([]activeEntry, 0, len(r.active))
	for _, e := range r.active {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make(map[string]HealthStatus, len(entries))

	for _, e := range entries {
		r.mu.RLock()
		plugin, ok := r.plugins[e.pluginName]
		r.mu.RUnlock()

		if !ok {
			out[e.handle.ID] = Unhealthy

			continue
		}

		status, err := plugin.HealthCheck(ctx, e.handle)
		if err != nil {
			out[e.handle.ID] = Unhealthy

			continue
		}

		out[e.handle.ID] = status
	}

	return out
}

// StopAll stops every active handle, best-effort: failures are logged,
// not propagated, matching the registry-drop contract.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		if err := r.Stop(ctx, id); err != nil {
			r.logger.Warn("service stop failed during registry shutdown", "handle_id", id, "error", err)
		}
	}
}
