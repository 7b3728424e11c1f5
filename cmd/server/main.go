package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cache"
	"github.com/youngspiritsbartending/youngspirits.co/internal/cart"
	"github.com/youngspiritsbartending/youngspirits.co/internal/catalog"
	"github.com/youngspiritsbartending/youngspirits.co/internal/config"
	"github.com/youngspiritsbartending/youngspirits.co/internal/httpapi"
	"github.com/youngspiritsbartending/youngspirits.co/internal/linktoken"
	"github.com/youngspiritsbartending/youngspirits.co/internal/service"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store/memory"
	pgstore "github.com/youngspiritsbartending/youngspirits.co/internal/store/postgres"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	cacheStore := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.KeyPrefix)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	cat := catalog.New(repo, cacheStore, time.Duration(cfg.CatalogCacheTTLSeconds)*time.Second)
	svc := service.New(repo, cat, linktoken.NewSigner(cfg.LinkSecret))

	sessions := cart.NewSessions(time.Duration(cfg.CartIdleMinutes)*time.Minute, cfg.CartSessionLimit)
	stopSweeper := make(chan struct{})
	go sessions.RunSweeper(sweepInterval, stopSweeper)

	api := httpapi.New(svc, sessions, cfg.AllowedOrigin, cfg.CookieSecure)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("booking backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	close(stopSweeper)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.LinkSecret) < 32 {
		return fmt.Errorf("LINK_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" && cfg.CookieSecure {
		return fmt.Errorf("ALLOWED_ORIGIN must name a single origin when COOKIE_SECURE is enabled")
	}
	return nil
}
