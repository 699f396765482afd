package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/cachekit/internal/logging"
	"github.com/example/cachekit/internal/metrics"
	"github.com/example/cachekit/internal/purge"
	"github.com/example/cachekit/internal/store"
)

// Maintenance defaults.
const (
	DefaultTransientPattern = "cache:temp:*"
	DefaultSessionPattern   = "session:*"
	DefaultSessionTTL       = time.Hour
)

// SessionStore is the store capability the TTL backfill needs.
type SessionStore interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MaintenanceConfig configures the periodic maintenance task.
type MaintenanceConfig struct {
	Purge            *purge.Engine
	Store            SessionStore
	TransientPattern string
	SessionPattern   string
	SessionTTL       time.Duration
}

// Maintenance is the composed per-tick work: purge transient keys, then
// backfill a default TTL onto session keys written without one so no
// session lives forever by omission.
type Maintenance struct {
	purge            *purge.Engine
	store            SessionStore
	transientPattern string
	sessionPattern   string
	sessionTTL       time.Duration
}

// NewMaintenance creates the maintenance task, applying defaults for any
// zero-valued setting.
func NewMaintenance(cfg MaintenanceConfig) *Maintenance {
	if cfg.TransientPattern == "" {
		cfg.TransientPattern = DefaultTransientPattern
	}
	if cfg.SessionPattern == "" {
		cfg.SessionPattern = DefaultSessionPattern
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Maintenance{
		purge:            cfg.Purge,
		store:            cfg.Store,
		transientPattern: cfg.TransientPattern,
		sessionPattern:   cfg.SessionPattern,
		sessionTTL:       cfg.SessionTTL,
	}
}

// Run executes one maintenance tick. Failures are logged and counted but
// never propagate: a failed tick must not stop future ticks.
func (m *Maintenance) Run(ctx context.Context) {
	ok := true

	deleted, err := m.purge.Cleanup(ctx, m.transientPattern)
	if err != nil {
		ok = false
		logging.Warn("Maintenance purge failed",
			zap.String("pattern", m.transientPattern),
			zap.Error(err),
		)
	} else if deleted > 0 {
		logging.Info("Maintenance purge removed transient keys",
			zap.String("pattern", m.transientPattern),
			zap.Int("deleted", deleted),
		)
	}

	backfilled, err := m.backfillSessionTTLs(ctx)
	if err != nil {
		ok = false
		logging.Warn("Session TTL backfill failed",
			zap.String("pattern", m.sessionPattern),
			zap.Error(err),
		)
	} else if backfilled > 0 {
		logging.Info("Backfilled session TTLs",
			zap.String("pattern", m.sessionPattern),
			zap.Int("keys", backfilled),
		)
	}

	if ok {
		metrics.SchedulerTicks.WithLabelValues("ok").Inc()
	} else {
		metrics.SchedulerTicks.WithLabelValues("error").Inc()
	}
}

func (m *Maintenance) backfillSessionTTLs(ctx context.Context) (int, error) {
	keys, err := m.store.Keys(ctx, m.sessionPattern)
	if err != nil {
		return 0, err
	}

	backfilled := 0
	for _, key := range keys {
		ttl, err := m.store.TTL(ctx, key)
		if err != nil {
			return backfilled, err
		}
		if ttl != store.TTLNone {
			continue
		}
		if _, err := m.store.Expire(ctx, key, m.sessionTTL); err != nil {
			return backfilled, err
		}
		backfilled++
	}
	return backfilled, nil
}
