package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/r1cksync/skycast/internal/auth"
	"github.com/r1cksync/skycast/internal/cache"
	"github.com/r1cksync/skycast/internal/chatbot"
	"github.com/r1cksync/skycast/internal/config"
	httphandler "github.com/r1cksync/skycast/internal/http"
	"github.com/r1cksync/skycast/internal/llm"
	"github.com/r1cksync/skycast/internal/observability"
	"github.com/r1cksync/skycast/internal/store"
	"github.com/r1cksync/skycast/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := weather.New(cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, cfg.GeocodingAPIURL, cfg.WeatherTimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	completer, err := llm.New(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.GroqTimeout)
	if err != nil {
		logger.Fatal("completion client", zap.Error(err))
	}
	orchestrator := chatbot.New(completer, weatherClient, logger)

	userStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("user store", zap.Error(err))
	}

	var (
		cacheStore cache.Store
		memory     *cache.Memory
		memcached  *cache.Memcached
	)
	switch cfg.CacheBackend {
	case "memcached":
		memcached, err = cache.NewMemcached(cfg.MemcachedAddrs, cfg.MemcachedTimeout, 0)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		cacheStore = memcached
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		memory = cache.NewMemory(cfg.CacheSweepInterval)
		cacheStore = memory
		logger.Info("cache backend: in_memory", zap.Duration("sweep_interval", cfg.CacheSweepInterval))
	}
	cacher := cache.NewCacher(cacheStore, cfg.CacheTTL(), cfg.CacheBackend, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := httphandler.NewHandler(
		weatherClient,
		orchestrator,
		userStore,
		auth.NewGoogleVerifier(cfg.GoogleClientID),
		auth.NewTokenManager(cfg.JWTSecret),
		logger,
	)
	router := httphandler.NewRouter(handler, cacher, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if memory != nil {
		memory.Stop()
	}
	if memcached != nil {
		if err := memcached.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	if err := userStore.Close(); err != nil {
		logger.Error("user store close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
