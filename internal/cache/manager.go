// Package cache implements the expiration policy engine: TTL-stamped
// writes, sliding-window reads that extend a key's life, and atomic batched
// writes. Expiry itself is owned by the backing store; this layer never
// scans for expired keys.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/cachekit/internal/cacheerr"
	"github.com/example/cachekit/internal/metrics"
	"github.com/example/cachekit/internal/store"
)

// DefaultSlidingWindow is the window applied by the SetSliding/GetSliding
// pair when none is configured.
const DefaultSlidingWindow = time.Minute

// Entry is one key/value pair submitted to SetBatch.
type Entry struct {
	Key   string
	Value any
	TTL   time.Duration
}

// Manager issues expiration-aware reads and writes against a key-value
// store.
type Manager struct {
	store  store.KV
	window time.Duration
}

// New creates a Manager. window is the fixed sliding window used by
// SetSliding/GetSliding; non-positive values fall back to
// DefaultSlidingWindow.
func New(s store.KV, window time.Duration) *Manager {
	if window <= 0 {
		window = DefaultSlidingWindow
	}
	return &Manager{store: s, window: window}
}

// SetWithTTL serializes value and writes it under key with the given
// expiry. The TTL must be positive.
func (m *Manager) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return cacheerr.New(cacheerr.KindInvalidArgument, "key must not be empty")
	}
	if ttl <= 0 {
		return cacheerr.Newf(cacheerr.KindInvalidArgument, "ttl must be positive, got %v", ttl)
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, data, ttl)
}

// Get reads a key without touching its expiry. Absent and expired keys both
// report found=false; the store does not distinguish them.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return m.GetWithRefresh(ctx, key, 0)
}

// GetWithRefresh reads a key and, when refresh is positive and the key was
// found, re-applies that TTL so the read extends the key's life. The read
// and the expiry update are two store commands; if the key dies between
// them the value already read is still returned and the refresh is a no-op.
func (m *Manager) GetWithRefresh(ctx context.Context, key string, refresh time.Duration) ([]byte, bool, error) {
	if refresh < 0 {
		return nil, false, cacheerr.Newf(cacheerr.KindInvalidArgument, "refresh ttl must not be negative, got %v", refresh)
	}

	value, found, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}
	metrics.CacheHits.Inc()

	if refresh > 0 {
		if _, err := m.store.Expire(ctx, key, refresh); err != nil {
			return nil, false, err
		}
	}
	return value, true, nil
}

// SetSliding writes a key with the configured sliding window as its TTL.
func (m *Manager) SetSliding(ctx context.Context, key string, value any) error {
	return m.SetWithTTL(ctx, key, value, m.window)
}

// GetSliding reads a key and resets its TTL to the configured sliding
// window.
func (m *Manager) GetSliding(ctx context.Context, key string) ([]byte, bool, error) {
	return m.GetWithRefresh(ctx, key, m.window)
}

// SetBatch validates and serializes all entries, then applies them as one
// atomic store-level unit in a single round trip. A validation failure
// rejects the whole batch before anything is written.
func (m *Manager) SetBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := make([]store.Entry, len(entries))
	for i, e := range entries {
		if e.Key == "" {
			return cacheerr.Newf(cacheerr.KindInvalidArgument, "entry %d: key must not be empty", i)
		}
		if e.TTL <= 0 {
			return cacheerr.Newf(cacheerr.KindInvalidArgument, "entry %d: ttl must be positive, got %v", i, e.TTL)
		}
		data, err := encode(e.Value)
		if err != nil {
			return cacheerr.Newf(cacheerr.KindInvalidArgument, "entry %d: %v", i, err)
		}
		batch[i] = store.Entry{Key: e.Key, Value: data, TTL: e.TTL}
	}
	return m.store.SetBatch(ctx, batch)
}

// Delete removes keys and returns how many existed.
func (m *Manager) Delete(ctx context.Context, keys ...string) (int64, error) {
	return m.store.Del(ctx, keys...)
}

// DeletePattern removes every key matching the glob pattern, regardless of
// TTL. This is the unconditional variant backing explicit cache
// invalidation; the purge engine applies the conservative TTL-aware policy.
func (m *Manager) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := m.store.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return m.store.Del(ctx, keys...)
}

// encode turns a value into bytes: byte slices and strings pass through,
// everything else is JSON-marshalled.
func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, cacheerr.Wrap(err, cacheerr.KindInvalidArgument, "value is not serializable")
		}
		return data, nil
	}
}
