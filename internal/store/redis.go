package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/example/cachekit/internal/cacheerr"
	"github.com/example/cachekit/internal/metrics"
)

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	// Connect retry policy: capped exponential backoff until MaxConnectWait
	// elapses. Zero values fall back to defaults.
	ConnectBackoffCap time.Duration
	MaxConnectWait    time.Duration
}

// Redis is the go-redis backed store adapter. It implements Store.
type Redis struct {
	client *redis.Client
	cfg    RedisConfig
}

var _ Store = (*Redis)(nil)

// NewRedis creates a Redis store adapter. Call Connect before first use to
// verify connectivity; individual commands do not retry.
func NewRedis(cfg RedisConfig) *Redis {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.ConnectBackoffCap == 0 {
		cfg.ConnectBackoffCap = 5 * time.Second
	}
	if cfg.MaxConnectWait == 0 {
		cfg.MaxConnectWait = 30 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	return &Redis{client: client, cfg: cfg}
}

// Connect pings the server, retrying with capped exponential backoff until
// the configured wait budget or ctx is exhausted.
func (r *Redis) Connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = r.cfg.ConnectBackoffCap
	bo.MaxElapsedTime = r.cfg.MaxConnectWait

	err := backoff.Retry(func() error {
		return r.client.Ping(ctx).Err()
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return cacheerr.Wrap(err, cacheerr.KindStoreUnavailable, "connect to store")
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Client exposes the raw client for integration tests.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	metrics.StoreOps.WithLabelValues("get").Inc()
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		metrics.StoreErrors.WithLabelValues("get").Inc()
		return nil, false, translate("get", err)
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	metrics.StoreOps.WithLabelValues("set").Inc()
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.StoreErrors.WithLabelValues("set").Inc()
		return translate("set", err)
	}
	return nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	metrics.StoreOps.WithLabelValues("expire").Inc()
	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("expire").Inc()
		return false, translate("expire", err)
	}
	return ok, nil
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	metrics.StoreOps.WithLabelValues("ttl").Inc()
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("ttl").Inc()
		return 0, translate("ttl", err)
	}
	// go-redis reports the -1/-2 sentinels as bare durations
	return d, nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	metrics.StoreOps.WithLabelValues("del").Inc()
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("del").Inc()
		return 0, translate("del", err)
	}
	return n, nil
}

// Keys enumerates keys matching the glob pattern with SCAN, avoiding the
// blocking KEYS command.
func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	metrics.StoreOps.WithLabelValues("keys").Inc()
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			metrics.StoreErrors.WithLabelValues("keys").Inc()
			return nil, translate("keys", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (r *Redis) SetBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	metrics.StoreOps.WithLabelValues("set_batch").Inc()
	pipe := r.client.TxPipeline()
	for _, e := range entries {
		pipe.Set(ctx, e.Key, e.Value, e.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("set_batch").Inc()
		return translate("set_batch", err)
	}
	return nil
}

func (r *Redis) FilterReserve(ctx context.Context, name string, errorRate float64, capacity int64) error {
	metrics.StoreOps.WithLabelValues("filter_reserve").Inc()
	if err := r.client.BFReserve(ctx, name, errorRate, capacity).Err(); err != nil {
		metrics.StoreErrors.WithLabelValues("filter_reserve").Inc()
		return translate("filter_reserve", err)
	}
	return nil
}

func (r *Redis) FilterAdd(ctx context.Context, name, item string) (bool, error) {
	metrics.StoreOps.WithLabelValues("filter_add").Inc()
	added, err := r.client.BFAdd(ctx, name, item).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("filter_add").Inc()
		return false, translate("filter_add", err)
	}
	return added, nil
}

func (r *Redis) FilterExists(ctx context.Context, name, item string) (bool, error) {
	metrics.StoreOps.WithLabelValues("filter_exists").Inc()
	ok, err := r.client.BFExists(ctx, name, item).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("filter_exists").Inc()
		return false, translate("filter_exists", err)
	}
	return ok, nil
}

func (r *Redis) FilterAddMany(ctx context.Context, name string, items []string) ([]bool, error) {
	if len(items) == 0 {
		return []bool{}, nil
	}
	metrics.StoreOps.WithLabelValues("filter_madd").Inc()
	results, err := r.client.BFMAdd(ctx, name, toAny(items)...).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("filter_madd").Inc()
		return nil, translate("filter_madd", err)
	}
	return results, nil
}

func (r *Redis) FilterExistsMany(ctx context.Context, name string, items []string) ([]bool, error) {
	if len(items) == 0 {
		return []bool{}, nil
	}
	metrics.StoreOps.WithLabelValues("filter_mexists").Inc()
	results, err := r.client.BFMExists(ctx, name, toAny(items)...).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("filter_mexists").Inc()
		return nil, translate("filter_mexists", err)
	}
	return results, nil
}

func (r *Redis) ConfigSet(ctx context.Context, param, value string) error {
	metrics.StoreOps.WithLabelValues("config_set").Inc()
	if err := r.client.ConfigSet(ctx, param, value).Err(); err != nil {
		metrics.StoreErrors.WithLabelValues("config_set").Inc()
		return translate("config_set", err)
	}
	return nil
}

func (r *Redis) Info(ctx context.Context, section string) (string, error) {
	metrics.StoreOps.WithLabelValues("info").Inc()
	text, err := r.client.Info(ctx, section).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("info").Inc()
		return "", translate("info", err)
	}
	return text, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	metrics.StoreOps.WithLabelValues("ping").Inc()
	if err := r.client.Ping(ctx).Err(); err != nil {
		metrics.StoreErrors.WithLabelValues("ping").Inc()
		return translate("ping", err)
	}
	return nil
}

func toAny(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// translate classifies a go-redis error. RedisBloom reports collisions as
// "item exists" and operations on missing filters as "not found"; anything
// else is a transport or server failure.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return cacheerr.New(cacheerr.KindNotFound, op+": not found")
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "item exists"):
		return cacheerr.Wrap(err, cacheerr.KindAlreadyExists, op+": already exists")
	case strings.Contains(msg, "not found"):
		return cacheerr.Wrap(err, cacheerr.KindNotFound, op+": not found")
	default:
		return cacheerr.Wrap(err, cacheerr.KindStoreUnavailable, op+" failed")
	}
}
