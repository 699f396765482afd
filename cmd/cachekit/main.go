package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/cachekit/internal/bloom"
	"github.com/example/cachekit/internal/cache"
	"github.com/example/cachekit/internal/config"
	"github.com/example/cachekit/internal/logging"
	"github.com/example/cachekit/internal/purge"
	"github.com/example/cachekit/internal/scheduler"
	"github.com/example/cachekit/internal/server"
	"github.com/example/cachekit/internal/stats"
	"github.com/example/cachekit/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/cachekit.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Cachekit %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	loader := config.NewLoader()
	cfg, err := loader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *validateOnly {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	// Initialize structured logger
	var logger *zap.Logger
	if cfg.Logging.File != "" {
		logger = logging.NewWithRotation(cfg.Logging.Level, logging.RotationConfig{
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
	} else {
		logger, err = logging.New(cfg.Logging.Level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	logging.Info("Starting Cachekit",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("listen", cfg.Server.Addr),
	)

	// Connect to the store
	rdb := store.NewRedis(store.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	if err := rdb.Connect(context.Background()); err != nil {
		logging.Error("Failed to connect to store", zap.Error(err))
		os.Exit(1)
	}
	defer rdb.Close()

	// Optional store provisioning: eviction knobs are owned by the store,
	// we only set them once at startup when configured.
	if cfg.Redis.MaxMemory != "" {
		if err := rdb.ConfigSet(context.Background(), "maxmemory", cfg.Redis.MaxMemory); err != nil {
			logging.Warn("Failed to set maxmemory", zap.Error(err))
		}
	}
	if cfg.Redis.MaxMemoryPolicy != "" {
		if err := rdb.ConfigSet(context.Background(), "maxmemory-policy", cfg.Redis.MaxMemoryPolicy); err != nil {
			logging.Warn("Failed to set maxmemory-policy", zap.Error(err))
		}
	}

	// Wire up the managers
	cacheMgr := cache.New(rdb, cfg.Cache.SlidingWindow)
	filterMgr := bloom.New(rdb)
	reporter := stats.New(rdb)

	// Periodic maintenance: purge transient keys, backfill session TTLs
	maint := scheduler.NewMaintenance(scheduler.MaintenanceConfig{
		Purge:            purge.New(rdb, cfg.Maintenance.TransientMarker),
		Store:            rdb,
		TransientPattern: cfg.Maintenance.TransientPattern,
		SessionPattern:   cfg.Maintenance.SessionPattern,
		SessionTTL:       cfg.Maintenance.SessionTTL,
	})
	handle := scheduler.Start(cfg.Maintenance.Interval, maint.Run)

	srv := server.New(server.Config{
		Addr:             cfg.Server.Addr,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		DefaultErrorRate: cfg.Filters.DefaultErrorRate,
		DefaultCapacity:  cfg.Filters.DefaultCapacity,
	}, cacheMgr, filterMgr, reporter, rdb)

	// Run until SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			logging.Error("Server error", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Stop scheduling new maintenance ticks; an in-flight tick completes.
	handle.Cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown error", zap.Error(err))
		os.Exit(1)
	}

	logging.Info("Cachekit stopped")
}
