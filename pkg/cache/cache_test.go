package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/internal/storage/kv"
)

// testPage 测试用的分页结构体.
type testPage struct {
	IDs   []string `json:"ids"`
	Total int64    `json:"total"`
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	return cache.NewCache(store)
}

func TestCache_GetMissIsNotFound(t *testing.T) {
	c := newTestCache(t)

	_, err := cache.Get[testPage](context.Background(), c, "nonexistent")
	if !cache.IsMiss(err) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	page := testPage{IDs: []string{"av_1", "av_2"}, Total: 2}
	if err := cache.Set(ctx, c, "page:1", page, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get[testPage](ctx, c, "page:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Total != 2 || len(got.IDs) != 2 || got.IDs[1] != "av_2" {
		t.Errorf("got %+v, want %+v", got, page)
	}
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, c, "k", 1, 0)

	if ok, _ := c.Exists(ctx, "k"); !ok {
		t.Fatal("key should exist before deletion")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Fatal("key should not exist after deletion")
	}
}

func TestGetOrSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	callCount := 0
	getter := func() (testPage, error) {
		callCount++
		return testPage{IDs: []string{"a"}, Total: 1}, nil
	}

	first, hit, err := cache.GetOrSetHit(ctx, c, "p", getter, time.Minute)
	if err != nil {
		t.Fatalf("get or set: %v", err)
	}

	if hit {
		t.Error("first call should be a miss")
	}

	second, hit, err := cache.GetOrSetHit(ctx, c, "p", getter, time.Minute)
	if err != nil {
		t.Fatalf("get or set: %v", err)
	}

	if !hit {
		t.Error("second call should be a hit")
	}

	if callCount != 1 {
		t.Errorf("expected getter to be called once, got %d", callCount)
	}

	if first.Total != second.Total {
		t.Errorf("results don't match: %+v vs %+v", first, second)
	}
}

func TestGetOrSet_GetterError(t *testing.T) {
	c := newTestCache(t)

	_, err := cache.GetOrSet(context.Background(), c, "err", func() (int, error) {
		return 0, errors.New("getter error")
	}, 0)
	if err == nil || err.Error() != "getter error" {
		t.Fatalf("expected getter error, got %v", err)
	}

	if ok, _ := c.Exists(context.Background(), "err"); ok {
		t.Error("failed getter must not populate the cache")
	}
}

func TestGetOrSet_ConcurrentMissesShareGetter(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32

	release := make(chan struct{})
	getter := func() (int, error) {
		calls.Add(1)
		<-release

		return 7, nil
	}

	const workers = 8

	var wg sync.WaitGroup

	results := make([]int, workers)

	for i := range workers {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i], _ = cache.GetOrSet(ctx, c, "shared", getter, time.Minute)
		}(i)
	}

	// 给所有 goroutine 进入 singleflight 的时间
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > workers {
		t.Fatalf("unexpected getter calls: %d", n)
	}

	for i, r := range results {
		if r != 7 {
			t.Errorf("worker %d got %d", i, r)
		}
	}
}

func TestGeneration(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "gen")
	if err != nil {
		t.Fatalf("generation: %v", err)
	}

	if gen != "0" {
		t.Errorf("initial generation = %q, want 0", gen)
	}

	if err := c.BumpGeneration(ctx, "gen"); err != nil {
		t.Fatalf("bump: %v", err)
	}

	next, _ := c.Generation(ctx, "gen")
	if next == gen {
		t.Error("generation did not change after bump")
	}
}

func TestHashKey(t *testing.T) {
	type filters struct {
		Search string   `json:"search"`
		Tags   []string `json:"tags"`
		Page   int      `json:"page"`
	}

	a, err := cache.HashKey(filters{Search: "x", Tags: []string{"a"}, Page: 1})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	b, _ := cache.HashKey(filters{Search: "x", Tags: []string{"a"}, Page: 1})
	c, _ := cache.HashKey(filters{Search: "x", Tags: []string{"a"}, Page: 2})

	if a != b {
		t.Error("equal inputs must hash equally")
	}

	if a == c {
		t.Error("different inputs should hash differently")
	}
}

func TestCache_ClearPattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := range 3 {
		_ = cache.Set(ctx, c, fmt.Sprintf("ah.list.%d", i), i, 0)
	}

	_ = cache.Set(ctx, c, "ah.keep", 1, 0)

	if err := c.Clear(ctx, "ah.list.*"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if ok, _ := c.Exists(ctx, "ah.keep"); !ok {
		t.Error("non matching key removed")
	}

	if ok, _ := c.Exists(ctx, "ah.list.1"); ok {
		t.Error("matching key kept")
	}
}
