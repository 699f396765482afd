package store

import (
	"context"
	"testing"
	"time"

	"github.com/example/cachekit/internal/cacheerr"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, found, err := m.Get(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v, %v), want hit", val, found, err)
	}
	if string(val) != "v1" {
		t.Errorf("value = %q, want v1", val)
	}

	_, found, err = m.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("Get absent: %v", err)
	}
	if found {
		t.Error("expected miss for absent key")
	}
}

func TestMemoryTTLSentinels(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ttl, err := m.TTL(ctx, "nope")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl != TTLMissing {
		t.Errorf("TTL(absent) = %v, want TTLMissing", ttl)
	}

	m.Set(ctx, "forever", []byte("x"), 0)
	ttl, _ = m.TTL(ctx, "forever")
	if ttl != TTLNone {
		t.Errorf("TTL(no expiry) = %v, want TTLNone", ttl)
	}

	m.Set(ctx, "timed", []byte("x"), 10*time.Second)
	ttl, _ = m.TTL(ctx, "timed")
	if ttl <= 0 || ttl > 10*time.Second {
		t.Errorf("TTL(timed) = %v, want in (0, 10s]", ttl)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "short", []byte("x"), 50*time.Millisecond)
	if _, found, _ := m.Get(ctx, "short"); !found {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(80 * time.Millisecond)

	if _, found, _ := m.Get(ctx, "short"); found {
		t.Error("expected miss after expiry")
	}
	if ttl, _ := m.TTL(ctx, "short"); ttl != TTLMissing {
		t.Errorf("TTL after expiry = %v, want TTLMissing", ttl)
	}
}

func TestMemoryExpire(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.Expire(ctx, "absent", time.Second)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if ok {
		t.Error("Expire on absent key reported true")
	}

	m.Set(ctx, "k", []byte("x"), 0)
	ok, _ = m.Expire(ctx, "k", 20*time.Second)
	if !ok {
		t.Fatal("Expire on live key reported false")
	}
	ttl, _ := m.TTL(ctx, "k")
	if ttl <= 0 || ttl > 20*time.Second {
		t.Errorf("TTL after Expire = %v, want in (0, 20s]", ttl)
	}
}

func TestMemoryDel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), 0)
	m.Set(ctx, "b", []byte("2"), 0)

	n, err := m.Del(ctx, "a", "b", "missing")
	if err != nil {
		t.Fatalf("Del: %v", err)
	}
	if n != 2 {
		t.Errorf("Del count = %d, want 2", n)
	}
}

func TestMemoryKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "cache:temp:1", []byte("x"), 0)
	m.Set(ctx, "cache:temp:2", []byte("x"), 0)
	m.Set(ctx, "cache:perm:1", []byte("x"), 0)
	m.Set(ctx, "session:9", []byte("x"), 0)

	keys, err := m.Keys(ctx, "cache:temp:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("matched %d keys, want 2: %v", len(keys), keys)
	}
	if keys[0] != "cache:temp:1" || keys[1] != "cache:temp:2" {
		t.Errorf("unexpected keys: %v", keys)
	}

	keys, _ = m.Keys(ctx, "nomatch:*")
	if len(keys) != 0 {
		t.Errorf("expected zero matches, got %v", keys)
	}
}

func TestMemorySetBatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	entries := []Entry{
		{Key: "b1", Value: []byte("1"), TTL: 10 * time.Second},
		{Key: "b2", Value: []byte("2"), TTL: 20 * time.Second},
		{Key: "b3", Value: []byte("3"), TTL: 30 * time.Second},
	}
	if err := m.SetBatch(ctx, entries); err != nil {
		t.Fatalf("SetBatch: %v", err)
	}

	for i, e := range entries {
		ttl, _ := m.TTL(ctx, e.Key)
		if ttl <= 0 || ttl > e.TTL {
			t.Errorf("entry %d TTL = %v, want in (0, %v]", i, ttl, e.TTL)
		}
	}
}

func TestMemoryFilterLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.FilterReserve(ctx, "f", 0.01, 1000); err != nil {
		t.Fatalf("FilterReserve: %v", err)
	}
	if err := m.FilterReserve(ctx, "f", 0.01, 1000); !cacheerr.IsAlreadyExists(err) {
		t.Errorf("second reserve = %v, want AlreadyExists", err)
	}

	added, err := m.FilterAdd(ctx, "f", "item")
	if err != nil {
		t.Fatalf("FilterAdd: %v", err)
	}
	if !added {
		t.Error("first add reported not-new")
	}
	added, _ = m.FilterAdd(ctx, "f", "item")
	if added {
		t.Error("second add of same item reported new")
	}

	ok, _ := m.FilterExists(ctx, "f", "item")
	if !ok {
		t.Error("added item reported absent")
	}
	ok, _ = m.FilterExists(ctx, "f", "other")
	if ok {
		t.Error("never-added item reported present")
	}
}

func TestMemoryFilterNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.FilterAdd(ctx, "ghost", "x"); !cacheerr.IsNotFound(err) {
		t.Errorf("FilterAdd on missing filter = %v, want NotFound", err)
	}
	if _, err := m.FilterExists(ctx, "ghost", "x"); !cacheerr.IsNotFound(err) {
		t.Errorf("FilterExists on missing filter = %v, want NotFound", err)
	}
	if _, err := m.FilterAddMany(ctx, "ghost", []string{"x"}); !cacheerr.IsNotFound(err) {
		t.Errorf("FilterAddMany on missing filter = %v, want NotFound", err)
	}
}

func TestMemoryFilterBatchOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.FilterReserve(ctx, "f", 0.01, 100)

	added, err := m.FilterAddMany(ctx, "f", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("FilterAddMany: %v", err)
	}
	for i, v := range added {
		if !v {
			t.Errorf("add result %d = false, want true", i)
		}
	}

	got, err := m.FilterExistsMany(ctx, "f", []string{"a", "z", "c"})
	if err != nil {
		t.Fatalf("FilterExistsMany: %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("exists result %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMemoryFilterTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.FilterReserve(ctx, "f", 0.01, 100)
	m.FilterAdd(ctx, "f", "x")

	ok, _ := m.Expire(ctx, "f", 50*time.Millisecond)
	if !ok {
		t.Fatal("Expire on filter key reported false")
	}

	time.Sleep(80 * time.Millisecond)

	// Expiry destroys the whole structure, membership included.
	if _, err := m.FilterExists(ctx, "f", "x"); !cacheerr.IsNotFound(err) {
		t.Errorf("FilterExists after expiry = %v, want NotFound", err)
	}
}

func TestMemoryInfo(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), time.Minute)

	for _, section := range []string{"memory", "keyspace", "stats"} {
		text, err := m.Info(ctx, section)
		if err != nil {
			t.Fatalf("Info(%s): %v", section, err)
		}
		if text == "" {
			t.Errorf("Info(%s) returned empty text", section)
		}
	}

	if _, err := m.Info(ctx, "cluster"); err == nil {
		t.Error("expected error for unknown section")
	}
}
