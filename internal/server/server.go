// Package server exposes the cache core over a thin HTTP API. It is a
// caller of the core, not part of it: handlers validate the wire payload,
// delegate to the managers and translate classified errors to status codes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/cachekit/internal/bloom"
	"github.com/example/cachekit/internal/cache"
	"github.com/example/cachekit/internal/metrics"
	"github.com/example/cachekit/internal/stats"
	"github.com/example/cachekit/internal/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Defaults applied when a filter create request omits sizing.
	DefaultErrorRate float64
	DefaultCapacity  int64
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	cache   *cache.Manager
	filters *bloom.Manager
	stats   *stats.Reporter
	store   store.Admin

	httpServer *http.Server
}

// New creates the server and its routes.
func New(cfg Config, cacheMgr *cache.Manager, filterMgr *bloom.Manager, reporter *stats.Reporter, admin store.Admin) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DefaultErrorRate == 0 {
		cfg.DefaultErrorRate = 0.01
	}
	if cfg.DefaultCapacity == 0 {
		cfg.DefaultCapacity = 10000
	}

	s := &Server{
		cfg:     cfg,
		cache:   cacheMgr,
		filters: filterMgr,
		stats:   reporter,
		store:   admin,
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/health", s.handleHealth)
	router.Handle(http.MethodPost, "/api/bloom/:name", s.handleFilterCreate)
	router.Handle(http.MethodPost, "/api/bloom/:name/add", s.handleFilterAdd)
	router.Handle(http.MethodPost, "/api/bloom/:name/check", s.handleFilterCheck)
	router.HandlerFunc(http.MethodPost, "/api/cache/set", s.handleCacheSet)
	router.HandlerFunc(http.MethodPost, "/api/cache/batch", s.handleCacheBatch)
	// "/api/cache/stats" shares the wildcard segment with key reads;
	// httprouter rejects the static sibling, so the handler dispatches.
	router.Handle(http.MethodGet, "/api/cache/:key", s.handleCacheGet)
	router.Handle(http.MethodDelete, "/api/cache/:pattern", s.handleCacheDeletePattern)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      requestID(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
