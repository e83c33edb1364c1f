package service

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"clnrmgo/internal/cache"
)

// GenericContainerPlugin runs an arbitrary image via
// testcontainers.GenericContainer: the catch-all plugin kind for any
// service a scenario needs that isn't a database or broker.
type GenericContainerPlugin struct {
	spec  Spec
	cache *cache.ContainerCache
}

// NewGenericContainerPlugin builds a plugin for spec, using containerCache
// to share identical-key containers across scenarios in the same run.
func NewGenericContainerPlugin(spec Spec, containerCache *cache.ContainerCache) *GenericContainerPlugin {
	return &GenericContainerPlugin{spec: spec, cache: containerCache}
}

func (p *GenericContainerPlugin) Name() string { return p.spec.Alias }

func (p *GenericContainerPlugin) Start(ctx context.Context) (Handle, error) {
	c, err := p.cache.GetOrCreate(ctx, p.spec.Alias, p.startContainer)
	if err != nil {
		return Handle{}, fmt.Errorf("generic container %q: %w", p.spec.Alias, err)
	}

	return Handle{
		ID:          c.ID(),
		ServiceName: p.spec.Alias,
		Metadata:    map[string]string{"image": p.spec.Image},
	}, nil
}

func (p *GenericContainerPlugin) startContainer(ctx context.Context, _ string) (cache.Container, error) {
	req := testcontainers.ContainerRequest{
		Image: p.spec.Image,
		Env:   p.spec.Env,
	}

	for _, port := range p.spec.Ports {
		req.ExposedPorts = append(req.ExposedPorts, fmt.Sprintf("%d/tcp", port))
	}

	if len(req.ExposedPorts) > 0 {
		req.WaitingFor = wait.ForListeningPort(nat.Port(req.ExposedPorts[0])).WithStartupTimeout(60 * time.Second)
	}

	for _, v := range p.spec.Volumes {
		req.Files = append(req.Files, testcontainers.ContainerFile{
			HostFilePath:      v.HostPath,
			ContainerFilePath: v.ContainerPath,
			FileMode:          0o644,
		})
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start generic container: %w", err)
	}

	return tcAdapter{c}, nil
}

func (p *GenericContainerPlugin) Stop(context.Context, Handle) error {
	// Container lifetime is owned by the cache, shared across every
	// scenario that referenced this alias; cache.TerminateAll handles
	// teardown at run end, not individual Stop calls.
	return nil
}

func (p *GenericContainerPlugin) HealthCheck(ctx context.Context, _ Handle) (HealthStatus, error) {
	if p.spec.HealthCheck == nil || p.spec.HealthCheck.Port == 0 {
		return Healthy, nil
	}

	c, err := p.cache.GetOrCreate(ctx, p.spec.Alias, p.startContainer)
	if err != nil {
		return Unhealthy, err
	}

	tc, ok := c.(tcAdapter)
	if !ok {
		return Unhealthy, fmt.Errorf("health check %q: cached container has no port mapping", p.spec.Alias)
	}

	mapped, err := tc.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", p.spec.HealthCheck.Port)))
	if err != nil {
		return Unhealthy, nil
	}

	if mapped.Port() == "" {
		return Unhealthy, nil
	}

	return Healthy, nil
}
