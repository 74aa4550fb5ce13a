package schema

import (
	"context"
	"sync"
)

type Source interface {
	Introspect(ctx context.Context) (Schema, error)
}

// Cache holds the first successful introspection for the rest of the
// session. Failures are not cached.
type Cache struct {
	source Source

	mu     sync.Mutex
	schema *Schema
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

func (c *Cache) Get(ctx context.Context) (Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schema != nil {
		return *c.schema, nil
	}
	captured, err := c.source.Introspect(ctx)
	if err != nil {
		return Schema{}, err
	}
	c.schema = &captured
	return captured, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.schema = nil
	c.mu.Unlock()
}
