package store

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/example/cachekit/internal/cacheerr"
)

// Memory is an in-process store adapter implementing the full capability
// set. It exists for tests and embedded use; expiry is checked lazily on
// access, and the filter capability is backed by exact sets, which satisfies
// the membership contract with a false-positive rate of zero.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	settings map[string]string
	commands int64
}

var _ Store = (*Memory)(nil)

type memEntry struct {
	value     []byte
	filter    *memFilter // non-nil for filter entries
	expiresAt time.Time  // zero means no expiry
}

type memFilter struct {
	errorRate float64
	capacity  int64
	members   map[string]struct{}
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]*memEntry),
		settings: make(map[string]string),
	}
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// live returns the entry for key, dropping it first if it has expired.
// Callers must hold m.mu.
func (m *Memory) live(key string) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	e := m.live(key)
	if e == nil {
		return nil, false, nil
	}
	if e.filter != nil {
		return nil, false, cacheerr.New(cacheerr.KindInvalidArgument, "get: wrong type")
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++
	m.setLocked(key, value, ttl)
	return nil
}

func (m *Memory) setLocked(key string, value []byte, ttl time.Duration) {
	e := &memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	e := m.live(key)
	if e == nil {
		return false, nil
	}
	e.expiresAt = time.Now().Add(ttl)
	return true, nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	e := m.live(key)
	if e == nil {
		return TTLMissing, nil
	}
	if e.expiresAt.IsZero() {
		return TTLNone, nil
	}
	return time.Until(e.expiresAt), nil
}

func (m *Memory) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	var n int64
	for _, key := range keys {
		if m.live(key) != nil {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

// Keys matches the glob pattern against live keys. Patterns use path.Match
// syntax, which covers the * and ? forms Redis KEYS understands for keys
// that contain no slash.
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	now := time.Now()
	var keys []string
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, cacheerr.Wrap(err, cacheerr.KindInvalidArgument, "keys: bad pattern")
		}
		if ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) SetBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	// Single lock hold makes the batch atomic with respect to readers.
	for _, e := range entries {
		m.setLocked(e.Key, e.Value, e.TTL)
	}
	return nil
}

func (m *Memory) FilterReserve(_ context.Context, name string, errorRate float64, capacity int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	if m.live(name) != nil {
		return cacheerr.New(cacheerr.KindAlreadyExists, "filter_reserve: already exists")
	}
	m.entries[name] = &memEntry{filter: &memFilter{
		errorRate: errorRate,
		capacity:  capacity,
		members:   make(map[string]struct{}),
	}}
	return nil
}

// filterLocked returns the live filter for name. Callers must hold m.mu.
func (m *Memory) filterLocked(name string) (*memFilter, error) {
	e := m.live(name)
	if e == nil {
		return nil, cacheerr.New(cacheerr.KindNotFound, "filter: not found")
	}
	if e.filter == nil {
		return nil, cacheerr.New(cacheerr.KindInvalidArgument, "filter: wrong type")
	}
	return e.filter, nil
}

func (m *Memory) FilterAdd(_ context.Context, name, item string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	f, err := m.filterLocked(name)
	if err != nil {
		return false, err
	}
	if _, ok := f.members[item]; ok {
		return false, nil
	}
	f.members[item] = struct{}{}
	return true, nil
}

func (m *Memory) FilterExists(_ context.Context, name, item string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	f, err := m.filterLocked(name)
	if err != nil {
		return false, err
	}
	_, ok := f.members[item]
	return ok, nil
}

func (m *Memory) FilterAddMany(_ context.Context, name string, items []string) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	f, err := m.filterLocked(name)
	if err != nil {
		return nil, err
	}
	results := make([]bool, len(items))
	for i, item := range items {
		if _, ok := f.members[item]; !ok {
			f.members[item] = struct{}{}
			results[i] = true
		}
	}
	return results, nil
}

func (m *Memory) FilterExistsMany(_ context.Context, name string, items []string) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	f, err := m.filterLocked(name)
	if err != nil {
		return nil, err
	}
	results := make([]bool, len(items))
	for i, item := range items {
		_, results[i] = f.members[item]
	}
	return results, nil
}

func (m *Memory) ConfigSet(_ context.Context, param, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++
	m.settings[param] = value
	return nil
}

// Info synthesizes the sections the stats reporter reads, in the same
// line-oriented format Redis emits.
func (m *Memory) Info(_ context.Context, section string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++

	now := time.Now()
	var keys, expiring, bytes int
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			continue
		}
		keys++
		if !e.expiresAt.IsZero() {
			expiring++
		}
		bytes += len(key) + len(e.value)
	}

	switch section {
	case "memory":
		return fmt.Sprintf("# Memory\r\nused_memory:%d\r\nmaxmemory:0\r\nmaxmemory_policy:%s\r\n",
			bytes, m.settingOr("maxmemory-policy", "noeviction")), nil
	case "keyspace":
		if keys == 0 {
			return "# Keyspace\r\n", nil
		}
		return fmt.Sprintf("# Keyspace\r\ndb0:keys=%d,expires=%d,avg_ttl=0\r\n", keys, expiring), nil
	case "stats":
		return fmt.Sprintf("# Stats\r\ntotal_commands_processed:%d\r\nexpired_keys:0\r\n", m.commands), nil
	default:
		return "", cacheerr.Newf(cacheerr.KindInvalidArgument, "info: unknown section %q", section)
	}
}

func (m *Memory) settingOr(param, fallback string) string {
	if v, ok := m.settings[param]; ok {
		return v
	}
	return fallback
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
