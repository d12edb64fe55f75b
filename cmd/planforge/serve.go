package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/PlanForge/internal/adapter/http"
	cfnats "github.com/Strob0t/PlanForge/internal/adapter/nats"
	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/adapter/natskv"
	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/adapter/ristretto"
	"github.com/Strob0t/PlanForge/internal/adapter/tiered"
	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/middleware"
	"github.com/Strob0t/PlanForge/internal/port/cache"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
	"github.com/Strob0t/PlanForge/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 90 * time.Second
	limiterSweep    = time.Minute
	limiterMaxIdle  = 10 * time.Minute
)

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, flags config.CLIFlags) error {
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"llm_provider", cfg.LLM.Provider,
		"nats_enabled", cfg.NATS.Enabled,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	// --- Observability ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	localCache, err := ristretto.New(cfg.Cache.MaxCostBytes, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer localCache.Close()

	var (
		planCache   cache.PlanCache = localCache
		queue       messagequeue.Publisher
		idempotency func(http.Handler) http.Handler
	)
	if cfg.NATS.Enabled {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
		slog.Info("nats connected", "url", cfg.NATS.URL)

		plansKV, err := q.KeyValue(ctx, natskv.BucketPlans, cfg.Cache.SharedTTL)
		if err != nil {
			return fmt.Errorf("nats kv %s: %w", natskv.BucketPlans, err)
		}
		planCache = tiered.New(localCache, natskv.New(plansKV))

		idemKV, err := q.KeyValue(ctx, middleware.BucketIdempotency, cfg.NATS.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("nats kv %s: %w", middleware.BucketIdempotency, err)
		}
		idempotency = middleware.Idempotency(idemKV)
		slog.Info("shared plan cache and idempotency enabled",
			"cache_ttl", cfg.Cache.SharedTTL,
			"idempotency_ttl", cfg.NATS.IdempotencyTTL,
		)
	}

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	// --- Services ---

	planSvc := service.NewPlanService(postgres.NewStore(pool), cfg.Planner)
	planSvc.SetCache(planCache)
	planSvc.SetHub(hub)
	planSvc.SetMetrics(metrics)
	if queue != nil {
		planSvc.SetQueue(queue)
	}

	closeGen, err := wireGenerator(ctx, planSvc, cfg)
	if err != nil {
		return fmt.Errorf("task generator: %w", err)
	}
	defer closeGen()

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Plans:     planSvc,
		Hub:       hub,
		Queue:     queue,
		BodyLimit: cfg.Server.BodyLimit,
	}
	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	r := chi.NewRouter()
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(chimw.Timeout(requestTimeout))
	if idempotency != nil {
		r.Use(idempotency)
	}

	cfhttp.MountRoutes(r, handlers, limiter.Handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx, limiterSweep, limiterMaxIdle)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
