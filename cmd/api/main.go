// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Lectoflip HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis when configured; otherwise keep blobs in memory.
//  5. Run database migrations (idempotent).
//  6. Wire storage, imports and HTTP handlers.
//  7. Start the trash purger and the HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dast-sv/lectoflip/internal/api"
	"github.com/dast-sv/lectoflip/internal/blob"
	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/export"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/pdfimport"
	"github.com/dast-sv/lectoflip/internal/platform/config"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/internal/platform/migration"
	pgstore "github.com/dast-sv/lectoflip/internal/platform/postgres"
	redisstore "github.com/dast-sv/lectoflip/internal/platform/redis"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
	"github.com/dast-sv/lectoflip/internal/reader"
	"github.com/dast-sv/lectoflip/internal/storage"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Background work (rate limiter cleanup, trash purge) stops with this context.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Transient blobs ────────────────────────────────────────────────
	var (
		blobs      blob.Store
		checkCache func() error
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, rdb)

		blobs = blob.NewRedisStore(rdb, cfg.PublicBaseURL, cfg.BlobTTL)
		checkCache = func() error { return redisstore.Ping(context.Background(), rdb) }
	} else {
		log.Warn("redis_disabled", slog.String("blobs", "memory"))
		blobs = blob.NewMemoryStore(cfg.PublicBaseURL, cfg.BlobTTL)
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token verification ─────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Storage ────────────────────────────────────────────────────────
	files, err := storage.NewDiskStore(cfg.StorageRoot, cfg.PublicBaseURL, constants.MaxImageBytes, cfg.PDFMaxBytes)
	must(log, err, "initialize file storage")

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache:   checkCache,
		CheckStorage: files.Ping,
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	bookService := book.NewService(book.NewRepository(pool), files, log)

	extractor := pdfimport.NewExtractor(pdfimport.NewFitzRasterizer(cfg.RasterDPI), blobs, cfg.MaxPageWidth, log)
	jobs := pdfimport.NewJobs(extractor, cfg.ImportTTL, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Books:     book.NewHandler(bookService),
		Reader:    reader.NewHandler(bookService, api.OriginPolicy(cfg), log),
		Export:    export.NewHandler(bookService, export.NewBuilder(render.New(), files, log)),
		Imports:   pdfimport.NewHandler(jobs, blobs, bookService, cfg.PDFMaxBytes, log),
		Blobs:     blob.NewHandler(blobs),
		Files:     files.Handler(),
	}

	go bookService.RunPurger(rootCtx, cfg.PurgeInterval, cfg.TrashRetention)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		exitCode = 1
	}
	rootCancel()

	// Running extractions stop between pages; every job releases its blobs.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := jobs.Close(closeCtx); err != nil {
		log.Error("import_jobs_close_failed", slog.Any("error", err))
	}
	closeCancel()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info("server stopped cleanly")
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("closing redis client")
	if err := client.Close(); err != nil {
		log.Error("redis close error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
