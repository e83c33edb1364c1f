// Package cache implements the container cache: a get-or-create store
// keyed by service alias, guaranteeing its factory runs at most once per
// key even under concurrent first access.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Container is the minimal lifecycle surface the cache needs from
// whatever testcontainers-go returns; service plugins adapt their
// concrete container handles to this interface.
type Container interface {
	ID() string
	Terminate(ctx context.Context) error
}

// Factory creates the Container for key. It runs at most once per key
// regardless of how many goroutines race to request that key first.
type Factory func(ctx context.Context, key string) (Container, error)

type entry struct {
	once      sync.Once
	container Container
	err       error
}

// ContainerCache is a get-or-create store over container handles, one
// per service alias. Its locking follows the registry's rule: no
// operation holds the cache's own outer lock while a factory runs, only
// long enough to fetch or insert the per-key entry.
type ContainerCache struct {
	mu      sync.Mutex
	entries map[string]*entry

	created atomic.Int64
	reused  atomic.Int64
}

// NewContainerCache returns an empty cache.
func NewContainerCache() *ContainerCache {
	return &ContainerCache{entries: make(map[string]*entry)}
}

// GetOrCreate returns the cached container for key, creating it via
// factory on first access. Concurrent callers for the same key block on
// the same underlying sync.Once, so factory is invoked exactly once per
// key no matter how many goroutines race in.
func (c *ContainerCache) GetOrCreate(ctx context.Context, key string, factory Factory) (Container, error) {
	c.mu.Lock()
	e, existed := c.entries[key]
	if !existed {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.container, e.err = factory(ctx, key)

		if e.err == nil {
			c.created.Add(1)
		}
	})

	if existed {
		c.reused.Add(1)
	}

	if e.err != nil {
		return nil, fmt.Errorf("container cache: factory for key %q: %w", key, e.err)
	}

	return e.container, nil
}

// Stats reports cumulative created/reused counts across the cache's
// lifetime, the counters the environment's metrics surface exposes.
func (c *ContainerCache) Stats() (created, reused int64) {
	return c.created.Load(), c.reused.Load()
}

// TerminateAll stops every cached container and returns the first error
// encountered, after attempting to terminate the rest. Errors after the
// first are not reported.
func (c *ContainerCache) TerminateAll(ctx context.Context) error {
	c.mu.Lock()
	entries := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	var firstErr error

	for _, e := range entries {
		if e.container == nil {
			continue
		}

		if err := e.container.Terminate(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("container cache: terminate: %w", err)
		}
	}

	return firstErr
}
