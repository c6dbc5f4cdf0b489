package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/shuttlesplit/api/internal/config"
	"github.com/shuttlesplit/api/internal/database"
	"github.com/shuttlesplit/api/internal/fees"
	"github.com/shuttlesplit/api/internal/handler/health"
	"github.com/shuttlesplit/api/internal/migrations"
	"github.com/shuttlesplit/api/internal/server"
	"github.com/shuttlesplit/api/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := migrations.Version(db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	st := store.NewSQLiteStore(db)
	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	feeOpts := fees.Options{
		Rounding:     fees.Rounding(cfg.FeeRounding),
		RoundingUnit: cfg.FeeRoundingUnit,
	}

	// --- Redis (optional) ---
	var cache store.ReportCache = store.NopReportCache{}
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		cache = store.NewRedisReportCache(rdb, cfg.ReportCacheTTL, feeOpts)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis", "report_ttl", cfg.ReportCacheTTL.String())
	} else {
		logger.Info("redis disabled, fee reports computed per request")
	}

	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, st, time.Now()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("invalidating fee report cache after seed", "error", err)
		}
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:             st,
		Cache:             cache,
		FeeOptions:        feeOpts,
		Checks:            checks,
		ClockInterval:     cfg.ClockInterval,
		ResetPasswordHash: cfg.ResetPasswordHash,
		SPADir:            cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
