package cache

import (
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, size int, ttl time.Duration) (*LRUCache[int], *clock, *[]string) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clk.Now
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })
	return c, clk, &evicted
}

func TestLRUCapacityEvictsOldest(t *testing.T) {
	c, _, evicted := newTestCache(t, 2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if len(*evicted) != 1 || (*evicted)[0] != "b" {
		t.Fatalf("evicted = %v", *evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUSlidingExpiry(t *testing.T) {
	c, clk, evicted := newTestCache(t, 10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clk.Advance(40 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a expired too early")
	}
	clk.Advance(40 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get should have refreshed a")
	}
	if len(*evicted) != 1 || (*evicted)[0] != "b" {
		t.Fatalf("evicted = %v", *evicted)
	}
}

func TestLRUExpiredGetEvicts(t *testing.T) {
	c, clk, evicted := newTestCache(t, 10, time.Second)
	c.Set("a", 1)
	clk.Advance(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if len(*evicted) != 1 {
		t.Fatalf("evicted = %v", *evicted)
	}
}

func TestLRUReplaceAndDeleteNotify(t *testing.T) {
	c, _, evicted := newTestCache(t, 10, time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)
	c.Delete("a")
	c.Delete("missing")
	if len(*evicted) != 2 {
		t.Fatalf("evicted = %v", *evicted)
	}
}

func TestLRUClear(t *testing.T) {
	c, _, evicted := newTestCache(t, 10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if c.Size() != 0 || len(*evicted) != 2 {
		t.Fatalf("size=%d evicted=%v", c.Size(), *evicted)
	}
}

func TestEvictCallbackMayUseCache(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	done := make(chan struct{})
	c.OnEvict(func(string, int) {
		c.Size()
		close(done)
	})
	c.Set("a", 1)
	c.Set("b", 2)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("eviction callback deadlocked")
	}
}

func TestManagerSweep(t *testing.T) {
	c, clk, _ := newTestCache(t, 10, time.Second)
	m := NewManager(nil)
	m.Register(c)
	c.Set("a", 1)
	clk.Advance(2 * time.Second)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d", n)
	}
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup")
	}
}
