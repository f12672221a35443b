// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

func TestTyped_GetOrLoad(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	typed := NewTyped[[]option](mc, "taxonomy:flatten:", time.Minute)
	ctx := context.Background()

	want := []option{{Value: 5, Label: "First Grade > Math > Addition"}}
	var loads atomic.Int32
	load := func(context.Context) ([]option, error) {
		loads.Add(1)
		return want, nil
	}

	for range 3 {
		got, err := typed.GetOrLoad(ctx, "0", load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("GetOrLoad mismatch (-want +got):\n%s", diff)
		}
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}

	if err := typed.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := typed.Get(ctx, "0"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Invalidate err = %v, want ErrCacheMiss", err)
	}
}

func TestTyped_LoadErrorNotCached(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	typed := NewTyped[int](mc, "n:", time.Minute)
	ctx := context.Background()

	boom := errors.New("db down")
	if _, err := typed.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	got, err := typed.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("GetOrLoad = %d, %v; want 7, nil", got, err)
	}
}

func TestTyped_ConcurrentLoadsShareOneCall(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	typed := NewTyped[int](mc, "n:", time.Minute)
	ctx := context.Background()

	release := make(chan struct{})
	var loads atomic.Int32
	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	started := make(chan struct{}, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if v, err := typed.GetOrLoad(ctx, "k", load); err != nil || v != 42 {
				t.Errorf("GetOrLoad = %d, %v", v, err)
			}
		}()
	}
	for range 8 {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n < 1 || n > 8 {
		t.Errorf("loads = %d", n)
	}
}
