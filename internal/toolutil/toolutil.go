// Package toolutil provides shared helper functions for go_travel MCP tools.
package toolutil

import (
	"context"

	"github.com/anatolykoptev/go_travel/internal/engine"
)

// ClampLimit returns def for non-positive n and caps n at max.
func ClampLimit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// Cached returns the cached value for key, or calls fn and caches its result on success.
func Cached[T any](ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if out, ok := engine.CacheLoadJSON[T](ctx, key); ok {
		return out, nil
	}
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	engine.CacheStoreJSON(ctx, key, out)
	return out, nil
}
