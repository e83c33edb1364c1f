package service

import (
	"context"

	"github.com/testcontainers/testcontainers-go"
)

// tcAdapter narrows any testcontainers.Container down to cache.Container
// (ID/Terminate with no variadic options), so every container-backed
// plugin in this package can share one ContainerCache regardless of
// which testcontainers module produced the container.
type tcAdapter struct {
	testcontainers.Container
}

func (a tcAdapter) ID() string { return a.Container.GetContainerID() }

func (a tcAdapter) Terminate(ctx context.Context) error {
	return a.Container.Terminate(ctx)
}
