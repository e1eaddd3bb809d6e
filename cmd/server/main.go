package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waiasella/backend/internal/cache"
	"waiasella/backend/internal/config"
	"waiasella/backend/internal/httpapi"
	"waiasella/backend/internal/mirror"
	"waiasella/backend/internal/service"
	"waiasella/backend/internal/store"
	"waiasella/backend/internal/store/memory"
	"waiasella/backend/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	if len(cfg.AuthSecret) < 32 {
		log.Fatalf("AUTH_SECRET must be set and at least 32 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	var gateway store.Gateway
	if cfg.DataPath != "" {
		sq, err := sqlite.New(cfg.DataPath)
		if err != nil {
			log.Fatalf("sqlite unavailable (%v) and DATA_PATH is set; refusing to start without durable storage", err)
		}
		gateway = sq
		closers = append(closers, sq.Close)
		log.Printf("gateway: sqlite (%s)", cfg.DataPath)
	} else {
		gateway = memory.New()
		log.Println("gateway: in-memory (state is lost on exit)")
	}

	var sink mirror.Sink = mirror.NoopSink{}
	if cfg.DatabaseURL != "" {
		pg, err := mirror.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			// The mirror is best-effort; starting offline is fine.
			log.Printf("remote mirror unavailable (%v), running offline", err)
		} else {
			sink = pg
			closers = append(closers, pg.Close)
			log.Println("mirror: postgres")
		}
	} else {
		log.Println("mirror: disabled")
	}

	reports := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reports = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("report cache: redis")
		}
	} else {
		log.Println("report cache: noop")
	}

	svc := service.New(ctx, gateway, sink, reports, service.Options{
		TaxRatePercent:    cfg.TaxRatePercent,
		LowStockThreshold: cfg.LowStockThreshold,
		TopSellingLimit:   cfg.TopSellingLimit,
		ReportCacheTTL:    time.Duration(cfg.ReportCacheTTLSeconds) * time.Second,
	})
	auth := httpapi.NewAuthManager(ctx, cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, gateway)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
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

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
