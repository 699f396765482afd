// Package store provides the adapter between the cache core and an external
// key-value engine. Capabilities are split into separate interfaces: a
// backend that cannot host membership filters simply does not implement
// Filters, and the mismatch is caught at construction rather than on the
// first call.
package store

import "context"
import "time"

// TTL reply sentinels, mirroring the Redis convention.
const (
	// TTLNone means the key exists but carries no expiry.
	TTLNone = time.Duration(-1)
	// TTLMissing means the key does not exist.
	TTLMissing = time.Duration(-2)
)

// Entry is one key/value pair with its expiry, as written by batched sets.
// A zero TTL writes the key without an expiry.
type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// KV is the plain key-value command surface.
//
// Get reports absence through the bool, not through an error; TTL reports it
// through TTLMissing. Every other failure is classified (see cacheerr).
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	// SetBatch applies all entries as one atomic unit in a single round trip.
	SetBatch(ctx context.Context, entries []Entry) error
}

// Filters is the approximate-membership command surface.
type Filters interface {
	FilterReserve(ctx context.Context, name string, errorRate float64, capacity int64) error
	FilterAdd(ctx context.Context, name, item string) (bool, error)
	FilterExists(ctx context.Context, name, item string) (bool, error)
	FilterAddMany(ctx context.Context, name string, items []string) ([]bool, error)
	FilterExistsMany(ctx context.Context, name string, items []string) ([]bool, error)
}

// Admin is the observability and provisioning surface.
type Admin interface {
	ConfigSet(ctx context.Context, param, value string) error
	Info(ctx context.Context, section string) (string, error)
	Ping(ctx context.Context) error
}

// Store is the full capability set offered by backends that support
// everything the core can use.
type Store interface {
	KV
	Filters
	Admin
}
