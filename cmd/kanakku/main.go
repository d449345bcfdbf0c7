package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"kanakku/internal/backend"
	"kanakku/internal/cache"
	"kanakku/internal/cli"
	apphttp "kanakku/internal/http"
	"kanakku/internal/ledger"
	"kanakku/internal/log"
	"kanakku/internal/services"
	"kanakku/internal/store"
	"kanakku/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg).WithComponent(log.ComponentApp)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid ledger timezone",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	origin := uuid.NewString()
	logger.Info("Starting kanakku",
		log.FieldOperation, log.OpStartup,
		log.FieldOrigin, origin,
		log.FieldBackend, cfg.DataBackend,
		"port", cfg.Port)

	backendCfg, err := backend.FromAppConfig(cfg, origin)
	if err != nil {
		logger.Error("Invalid backend configuration",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}

	engine := ledger.NewEngine(ledger.EngineConfig{
		CacheSize:  cfg.LedgerCacheSize,
		CacheTTL:   cfg.LedgerCacheTTL,
		Strict:     cfg.LedgerStrict,
		Registerer: prometheus.DefaultRegisterer,
		Logger:     logger,
	})

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(engine)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	var publisher services.Publisher
	if res.Events != nil {
		publisher = res.Events
	}
	svc := services.NewLedgerService(res.Store, engine, publisher, origin, logger)

	opts := apphttp.Options{
		Language: language.Make(cfg.LedgerLanguage),
		Calendar: cfg.LedgerCalendar,
		Location: loc,
		Logger:   logger,
	}
	if p, ok := res.Store.(store.Pinger); ok {
		opts.Ready = p
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdown := func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Stops the server when the worker fails.
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if res.Events != nil {
		invalidation := worker.NewInvalidationWorker(res.Events, engine, origin, logger)
		g.Go(func() error {
			return invalidation.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		shutdown(shutdownCtx)
		cancel()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
