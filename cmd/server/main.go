// Package main is the entry point for the MAMS API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mams/internal/app"
	"mams/internal/config"
	"mams/internal/domain/auth"
	"mams/internal/domain/personnel"
	v1 "mams/internal/infrastructure/http/v1"
	"mams/internal/infrastructure/metrics"
	"mams/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting mams server", "env", cfg.Env, "store", cfg.Store)

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open store", "store", cfg.Store, "error", err)
	}
	defer rt.Close()

	var m *metrics.Metrics
	opts := app.Options{}
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts.Observer = m
		if rt.Pool != nil {
			registerPoolGauges(m, rt)
		}
	}

	if opts.Personnel, err = personnel.Load(cfg.PersonnelFile); err != nil {
		log.Fatalw("failed to load personnel roster", "file", cfg.PersonnelFile, "error", err)
	}

	svc, err := app.NewServices(rt.Backend, opts)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	// The memory store starts empty; give it the reference bases.
	if cfg.Store == config.StoreMemory {
		res, err := app.Seed(ctx, svc, cfg.Development())
		if err != nil {
			log.Fatalw("failed to seed memory store", "error", err)
		}
		log.Infow("memory store seeded", "bases", res.Bases, "purchases", res.Purchases)
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtService := auth.NewJWTService(jwtConfig)

	mode := gin.ReleaseMode
	if cfg.Development() {
		mode = gin.DebugMode
	}
	router := v1.NewRouter(v1.RouterConfig{
		Services:     svc,
		Logger:       log,
		JWTValidator: jwtService,
		Metrics:      m,
		StoreName:    cfg.Store,
		Pinger:       rt.Pinger(),
		Mode:         mode,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	if rt.Pool != nil {
		go logPoolStats(statsCtx, rt, 5*time.Minute)
	}

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func registerPoolGauges(m *metrics.Metrics, rt *app.Runtime) {
	m.RegisterGauge("db", "pool_acquired_conns", "Connections currently acquired from the pool.", func() float64 {
		return float64(rt.Pool.Stats().AcquiredConns)
	})
	m.RegisterGauge("db", "pool_idle_conns", "Idle connections in the pool.", func() float64 {
		return float64(rt.Pool.Stats().IdleConns)
	})
	m.RegisterGauge("db", "pool_max_conns", "Maximum pool size.", func() float64 {
		return float64(rt.Pool.Stats().MaxConns)
	})
}

func logPoolStats(ctx context.Context, rt *app.Runtime, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Pool.LogStats(ctx)
		}
	}
}
