package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("Set should overwrite, got %v", v)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key should not be found")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, 5*time.Minute)

	c.Set("a", 1)
	clock.t = clock.t.Add(4 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry should live for the TTL")
	}
	c.Set("b", 2)
	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should expire after the TTL")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0 (b still fresh)", n)
	}
	clock.t = clock.t.Add(10 * time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	c.Set("u1/dashboard/2024-03", 1)
	c.Set("u1/dashboard/2024-04", 2)
	c.Set("u1/expenses", 3)
	c.Set("u2/dashboard/2024-03", 4)

	if n := c.DeletePrefix("u1/dashboard/"); n != 2 {
		t.Fatalf("DeletePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("u1/expenses"); !ok {
		t.Error("other families must survive")
	}
	if _, ok := c.Get("u2/dashboard/2024-03"); !ok {
		t.Error("other users must survive")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLStoresNothing(t *testing.T) {
	c, _ := newTestCache(10, 0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL cache should not keep entries")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestManager_CleanAll(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	clock.t = clock.t.Add(2 * time.Minute)

	m := NewManager()
	m.Register(c)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll() = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop() // idempotent
}
