package service

import (
	"context"
	"fmt"
	"net"
	"time"
)

const networkEndpointDialTimeout = 3 * time.Second

// NetworkEndpointPlugin checks a pre-existing host:port for
// reachability; it starts nothing and owns no container, for services
// that already run outside the cleanroom (a shared dev database, a
// sidecar started by the CI runner).
type NetworkEndpointPlugin struct {
	spec Spec
}

// NewNetworkEndpointPlugin builds a plugin that dials spec.Host.
func NewNetworkEndpointPlugin(spec Spec) *NetworkEndpointPlugin {
	return &NetworkEndpointPlugin{spec: spec}
}

func (p *NetworkEndpointPlugin) Name() string { return p.spec.Alias }

func (p *NetworkEndpointPlugin) Start(ctx context.Context) (Handle, error) {
	if err := p.dial(ctx); err != nil {
		return Handle{}, fmt.Errorf("network endpoint %q: %w", p.spec.Alias, err)
	}

	return Handle{
		ID:          p.spec.Alias,
		ServiceName: p.spec.Alias,
		Metadata:    map[string]string{"host": p.spec.Host},
	}, nil
}

func (p *NetworkEndpointPlugin) Stop(context.Context, Handle) error {
	return nil
}

func (p *NetworkEndpointPlugin) HealthCheck(ctx context.Context, _ Handle) (HealthStatus, error) {
	if err := p.dial(ctx); err != nil {
		return Unhealthy, nil
	}

	return Healthy, nil
}

func (p *NetworkEndpointPlugin) dial(ctx context.Context) error {
	d := net.Dialer{Timeout: networkEndpointDialTimeout}

	conn, err := d.DialContext(ctx, "tcp", p.spec.Host)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.spec.Host, err)
	}

	return conn.Close()
}
