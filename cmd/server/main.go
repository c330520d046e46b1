package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/neexbeast/tour-packages/internal/api"
	"github.com/neexbeast/tour-packages/internal/config"
	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/storage"
	"github.com/neexbeast/tour-packages/internal/tour"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := serve(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func serve(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, storage.PoolConfig{
		URL:            cfg.Database.DSN(),
		Schema:         cfg.Database.Schema,
		MinConns:       cfg.Database.PoolMin,
		MaxConns:       cfg.Database.PoolMax,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	log.Info("database connected", "schema", cfg.Database.Schema)

	// Run migrations.
	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "files", applied)

	// Connect to Redis.
	revisions, err := revision.Connect(ctx, cfg.RedisURL, cfg.RedisNamespace)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = revisions.Close() }()

	// Wire dependencies.
	destinations := tour.NewDestinationService(storage.NewDestinationRepository(pool))
	packages := tour.NewTourPackageService(storage.NewTourPackageRepository(pool))
	handlers := api.NewHandlers(destinations, packages, revisions, log, cfg.IsDevelopment())

	router := api.NewRouter(handlers, api.RouterConfig{
		DB:                 &pgxPoolPinger{pool: pool},
		Redis:              revisions,
		Metrics:            api.NewMetrics(),
		Log:                log,
		CORSOrigin:         cfg.CORS.Origin,
		CORSCredentials:    cfg.CORS.Credentials,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g := &run.Group{}
	g.Add(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				err = fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	})
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		log.Info("shutdown signal received", "signal", sigErr.Signal)
		err = nil
	}
	if err != nil {
		return err
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to the api.Pinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
