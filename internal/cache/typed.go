// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Typed stores JSON-encoded values of type T under a key prefix.
type Typed[T any] struct {
	cache  Cache
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewTyped wraps c. Keys passed to the methods are joined onto prefix.
func NewTyped[T any](c Cache, prefix string, ttl time.Duration) *Typed[T] {
	return &Typed[T]{cache: c, prefix: prefix, ttl: ttl}
}

// Get decodes the cached value for key.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	b, err := t.cache.Get(ctx, t.prefix+key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Set encodes v under key.
func (t *Typed[T]) Set(ctx context.Context, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.cache.Set(ctx, t.prefix+key, b, t.ttl)
}

// GetOrLoad returns the cached value or calls load, caching its result.
// Concurrent callers for the same key share one load. Cache failures are
// logged and never hide a successful load.
func (t *Typed[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, err := t.Get(ctx, key); err == nil {
		return v, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("cache read failed", "key", t.prefix+key, "error", err)
	}

	res, err, _ := t.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if err := t.Set(ctx, key, v); err != nil {
			slog.Warn("cache write failed", "key", t.prefix+key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Invalidate drops every key under the prefix.
func (t *Typed[T]) Invalidate(ctx context.Context) error {
	return t.cache.DeleteByPrefix(ctx, t.prefix)
}
