// Package purge removes keys that would otherwise live forever: a cleanup
// pass enumerates a glob pattern and deletes keys that carry the transient
// marker and have no expiry. Keys with a positive TTL countdown are always
// left to the store's own reaper.
package purge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/cachekit/internal/logging"
	"github.com/example/cachekit/internal/metrics"
	"github.com/example/cachekit/internal/store"
)

// DefaultMarker is the substring that flags a key as transient data.
const DefaultMarker = ":temp:"

// Store is the slice of store capability the engine needs.
type Store interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Engine deletes transient keys by pattern.
type Engine struct {
	store  Store
	marker string
}

// New creates a purge engine. marker is the substring that marks a key as
// transient; empty falls back to DefaultMarker.
//
// The marker convention is a heuristic: a permanent key whose name happens
// to contain the marker and that was written without a TTL will be purged
// too.
func New(s Store, marker string) *Engine {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Engine{store: s, marker: marker}
}

// Cleanup deletes every key matching pattern that carries the transient
// marker and has no expiry, and returns how many were deleted. Zero matches
// is a normal outcome, not an error.
//
// The TTL check and the delete are two store commands with no
// compare-and-delete primitive between them. A key that gains a TTL in that
// window is deleted anyway; the race is accepted and safe to hit
// concurrently with ordinary traffic or another cleanup run.
func (e *Engine) Cleanup(ctx context.Context, pattern string) (int, error) {
	keys, err := e.store.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if !strings.Contains(key, e.marker) {
			continue
		}
		ttl, err := e.store.TTL(ctx, key)
		if err != nil {
			return deleted, err
		}
		if ttl != store.TTLNone {
			// Counting down, or already gone since the scan.
			continue
		}
		n, err := e.store.Del(ctx, key)
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}

	if deleted > 0 {
		metrics.PurgeDeleted.Add(float64(deleted))
		logging.Debug("Purged transient keys",
			zap.String("pattern", pattern),
			zap.Int("deleted", deleted),
		)
	}
	return deleted, nil
}
