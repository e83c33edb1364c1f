package service

import "context"

// Plugin is the capability every service kind implements: start a
// backing instance, report its health, and tear it down. Plugin state
// is plugin-private; only the Handle's metadata is ever visible outside
// the registry.
type Plugin interface {
	Name() string
	Start(ctx context.Context) (Handle, error)
	Stop(ctx context.Context, handle Handle) error
	HealthCheck(ctx context.Context, handle Handle) (HealthStatus, error)
}
