package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/convoke-ai/convoke/pkg/cachex"
)

// NotConfiguredError reports a model key with no backing configuration.
type NotConfiguredError struct {
	Key string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("model %q is not configured", e.Key)
}

// Resolver maps a caller-facing model key to its descriptor.
type Resolver interface {
	Resolve(ctx context.Context, key string) (ModelDescriptor, error)
}

// Static is a fixed in-memory resolver, used in tests and in
// deployments whose catalog is compiled in.
type Static map[string]ModelDescriptor

// Resolve returns the descriptor for key or a NotConfiguredError.
// Incomplete descriptors fail validation here rather than surfacing
// later as a provider error.
func (s Static) Resolve(_ context.Context, key string) (ModelDescriptor, error) {
	d, ok := s[key]
	if !ok {
		return ModelDescriptor{}, &NotConfiguredError{Key: key}
	}
	if err := d.Validate(); err != nil {
		return ModelDescriptor{}, fmt.Errorf("model %q is misconfigured: %w", key, err)
	}
	return d, nil
}

// Cached decorates a resolver with a bounded TTL cache so the external
// configuration authority is consulted at most once per key per TTL.
type Cached struct {
	next  Resolver
	cache *cachex.Cache[ModelDescriptor]
}

const (
	descriptorTTL   = 5 * time.Minute
	descriptorBound = 256
)

// Cache wraps next with the descriptor cache.
func Cache(next Resolver) *Cached {
	return &Cached{
		next:  next,
		cache: cachex.New[ModelDescriptor](descriptorTTL, descriptorBound),
	}
}

// Resolve serves from cache when possible. Resolution failures are not
// cached: a key configured after a miss resolves on the next request.
func (c *Cached) Resolve(ctx context.Context, key string) (ModelDescriptor, error) {
	if d, ok := c.cache.Get(key); ok {
		return d, nil
	}
	d, err := c.next.Resolve(ctx, key)
	if err != nil {
		return ModelDescriptor{}, err
	}
	c.cache.Set(key, d)
	return d, nil
}
