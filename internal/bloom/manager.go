// Package bloom manages approximate-membership filters: creation with a
// bound error rate and capacity, element adds (optionally refreshing the
// filter's expiry), and positional batch checks. A check answering true
// means "possibly present" within the configured false-positive rate; false
// means "definitely absent".
package bloom

import (
	"context"
	"time"

	"github.com/example/cachekit/internal/cacheerr"
	"github.com/example/cachekit/internal/metrics"
	"github.com/example/cachekit/internal/store"
)

// Store is the slice of store capability this manager needs: the filter
// primitives plus per-key expiry for filter TTLs.
type Store interface {
	store.Filters
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Manager creates and operates membership filters.
type Manager struct {
	store Store
}

// New creates a filter manager.
func New(s Store) *Manager {
	return &Manager{store: s}
}

// Create reserves a filter. Creating a name that already exists surfaces
// AlreadyExists; nothing is swallowed or made idempotent here.
//
// When ttl is positive it is attached with a second store command. The two
// commands are not atomic: a crash in between leaves a filter with no
// expiry. That state is recoverable by re-issuing ExpireFilter, which is
// left to the caller.
func (m *Manager) Create(ctx context.Context, name string, errorRate float64, capacity int64, ttl time.Duration) error {
	if name == "" {
		return cacheerr.New(cacheerr.KindInvalidArgument, "filter name must not be empty")
	}
	if errorRate <= 0 || errorRate >= 1 {
		return cacheerr.Newf(cacheerr.KindInvalidArgument, "error rate must be in (0, 1), got %g", errorRate)
	}
	if capacity <= 0 {
		return cacheerr.Newf(cacheerr.KindInvalidArgument, "capacity must be positive, got %d", capacity)
	}
	if ttl < 0 {
		return cacheerr.Newf(cacheerr.KindInvalidArgument, "ttl must not be negative, got %v", ttl)
	}

	if err := m.store.FilterReserve(ctx, name, errorRate, capacity); err != nil {
		return err
	}
	if ttl > 0 {
		if _, err := m.store.Expire(ctx, name, ttl); err != nil {
			return err
		}
	}
	return nil
}

// ExpireFilter attaches or replaces the filter's expiry. Expiry destroys
// the whole structure; there is no graceful shrink.
func (m *Manager) ExpireFilter(ctx context.Context, name string, ttl time.Duration) error {
	if ttl <= 0 {
		return cacheerr.Newf(cacheerr.KindInvalidArgument, "ttl must be positive, got %v", ttl)
	}
	ok, err := m.store.Expire(ctx, name, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return cacheerr.Newf(cacheerr.KindNotFound, "filter %q not found", name)
	}
	return nil
}

// Add inserts one element and reports the structure's own notion of "newly
// added". When ttl is positive the filter's expiry is refreshed as a side
// effect, so actively written filters live longer automatically.
func (m *Manager) Add(ctx context.Context, name, item string, ttl time.Duration) (bool, error) {
	if err := m.ensureExists(ctx, name); err != nil {
		return false, err
	}
	added, err := m.store.FilterAdd(ctx, name, item)
	if err != nil {
		return false, err
	}
	metrics.FilterAdds.Inc()

	if ttl > 0 {
		if _, err := m.store.Expire(ctx, name, ttl); err != nil {
			return false, err
		}
	}
	return added, nil
}

// AddMany inserts all items in one round trip. The result slice is aligned
// with the input order.
func (m *Manager) AddMany(ctx context.Context, name string, items []string) ([]bool, error) {
	if err := m.ensureExists(ctx, name); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []bool{}, nil
	}
	results, err := m.store.FilterAddMany(ctx, name, items)
	if err != nil {
		return nil, err
	}
	metrics.FilterAdds.Add(float64(len(items)))
	return results, nil
}

// Check tests one element for membership.
func (m *Manager) Check(ctx context.Context, name, item string) (bool, error) {
	if err := m.ensureExists(ctx, name); err != nil {
		return false, err
	}
	ok, err := m.store.FilterExists(ctx, name, item)
	if err != nil {
		return false, err
	}
	metrics.FilterChecks.WithLabelValues(checkOutcome(ok)).Inc()
	return ok, nil
}

// CheckMany tests all items in one round trip. The result slice is aligned
// with the input order.
func (m *Manager) CheckMany(ctx context.Context, name string, items []string) ([]bool, error) {
	if err := m.ensureExists(ctx, name); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []bool{}, nil
	}
	results, err := m.store.FilterExistsMany(ctx, name, items)
	if err != nil {
		return nil, err
	}
	for _, ok := range results {
		metrics.FilterChecks.WithLabelValues(checkOutcome(ok)).Inc()
	}
	return results, nil
}

// ensureExists rejects operations on filters that were never created.
// RedisBloom would silently auto-create a filter with default sizing on the
// first add; the explicit check keeps the no-auto-creation contract uniform
// across backends.
func (m *Manager) ensureExists(ctx context.Context, name string) error {
	ttl, err := m.store.TTL(ctx, name)
	if err != nil {
		return err
	}
	if ttl == store.TTLMissing {
		return cacheerr.Newf(cacheerr.KindNotFound, "filter %q not found", name)
	}
	return nil
}

func checkOutcome(ok bool) string {
	if ok {
		return "maybe"
	}
	return "absent"
}
