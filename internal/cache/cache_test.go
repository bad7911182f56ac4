package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(capacity int, ttl time.Duration) (*Cache[string], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestCache(t *testing.T) {
	t.Run("GetPut", func(t *testing.T) {
		c, _ := newTestCache(4, time.Minute)
		if _, ok := c.Get("a"); ok {
			t.Error("expected miss on empty cache")
		}

		c.Put("a", "1")
		c.Put("a", "2")
		if v, ok := c.Get("a"); !ok || v != "2" {
			t.Errorf("Get(a) = %q, %v; want 2, true", v, ok)
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", c.Len())
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		c, clk := newTestCache(4, time.Minute)
		c.Put("a", "1")

		clk.advance(59 * time.Second)
		if _, ok := c.Get("a"); !ok {
			t.Error("entry expired early")
		}

		clk.advance(time.Second)
		if _, ok := c.Get("a"); ok {
			t.Error("entry should expire after ttl")
		}
		if c.Len() != 0 {
			t.Errorf("expired entry not dropped, len %d", c.Len())
		}
	})

	t.Run("PutRestartsTTL", func(t *testing.T) {
		c, clk := newTestCache(4, time.Minute)
		c.Put("a", "1")
		clk.advance(50 * time.Second)
		c.Put("a", "1")
		clk.advance(50 * time.Second)
		if _, ok := c.Get("a"); !ok {
			t.Error("re-put entry should still be live")
		}
	})

	t.Run("EvictsEarliestExpiring", func(t *testing.T) {
		c, clk := newTestCache(2, time.Minute)
		c.Put("a", "1")
		clk.advance(10 * time.Second)
		c.Put("b", "2")
		clk.advance(10 * time.Second)
		c.Put("c", "3")

		if _, ok := c.Get("a"); ok {
			t.Error("oldest entry should be evicted")
		}
		for _, k := range []string{"b", "c"} {
			if _, ok := c.Get(k); !ok {
				t.Errorf("entry %s should be kept", k)
			}
		}
	})

	t.Run("EvictionPrefersExpired", func(t *testing.T) {
		c, clk := newTestCache(3, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")
		clk.advance(30 * time.Second)
		c.Put("c", "3")
		clk.advance(40 * time.Second)
		c.Put("d", "4")

		if c.Len() != 2 {
			t.Errorf("both expired entries should be dropped, len %d", c.Len())
		}
		for _, k := range []string{"c", "d"} {
			if _, ok := c.Get(k); !ok {
				t.Errorf("entry %s should be kept", k)
			}
		}
	})

	t.Run("ReplaceDoesNotEvict", func(t *testing.T) {
		c, _ := newTestCache(2, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")
		c.Put("b", "3")
		if _, ok := c.Get("a"); !ok {
			t.Error("replacing a key must not evict another")
		}
	})

	t.Run("DeletePurge", func(t *testing.T) {
		c, _ := newTestCache(4, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")

		c.Delete("a")
		if _, ok := c.Get("a"); ok {
			t.Error("deleted entry still present")
		}

		c.Purge()
		if c.Len() != 0 {
			t.Errorf("expected empty cache after purge, got %d", c.Len())
		}
	})

	t.Run("MinimumCapacity", func(t *testing.T) {
		c, _ := newTestCache(0, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")
		if c.Len() != 1 {
			t.Errorf("expected capacity 1, got %d entries", c.Len())
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		c := New[int](16, time.Minute)
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 100 {
					key := fmt.Sprintf("k%d", (i*100+j)%32)
					c.Put(key, j)
					c.Get(key)
				}
			}()
		}
		wg.Wait()
		if c.Len() > 16 {
			t.Errorf("cache exceeded capacity: %d", c.Len())
		}
	})
}
