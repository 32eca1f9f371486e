package lib

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	logger := zerolog.Nop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(ttl, &logger)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_Expiration(t *testing.T) {
	c, now := newTestCache(time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("expected cached value 1, got %v (found=%v)", v, ok)
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Errorf("expected entry to be expired")
	}
}

func TestCache_Touch(t *testing.T) {
	c, now := newTestCache(time.Minute)

	c.Set("session", "s1")
	*now = now.Add(50 * time.Second)

	if !c.Touch("session") {
		t.Fatalf("expected touch on live entry to succeed")
	}

	*now = now.Add(50 * time.Second)
	if _, ok := c.Get("session"); !ok {
		t.Errorf("expected touched entry to still be live")
	}

	if c.Touch("missing") {
		t.Errorf("expected touch on missing entry to fail")
	}
}

func TestCache_Sweep(t *testing.T) {
	c, now := newTestCache(time.Minute)

	c.Set("old", 1)
	*now = now.Add(30 * time.Second)
	c.Set("new", 2)
	*now = now.Add(45 * time.Second)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("expected 1 removed entry, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", c.Len())
	}
	if _, ok := c.Get("new"); !ok {
		t.Errorf("expected the newer entry to survive the sweep")
	}
}
