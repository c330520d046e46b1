package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/tour-packages/internal/config"
	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/seed"
	"github.com/neexbeast/tour-packages/internal/storage"
	"github.com/neexbeast/tour-packages/internal/tour"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	seedValue := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed for generated packages")
	concurrency := flag.Int("concurrency", 4, "parallel package inserts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "files", applied)

	// Without Redis the table versions still change every ETag; only the
	// counters are skipped.
	var revisions seed.RevisionBumper
	store, err := revision.Connect(ctx, cfg.RedisURL, cfg.RedisNamespace)
	if err != nil {
		log.Warn("redis unavailable, revisions will not be bumped", "err", err)
	} else {
		defer func() { _ = store.Close() }()
		revisions = store
	}

	seeder := seed.NewSeeder(
		tour.NewDestinationService(storage.NewDestinationRepository(pool)),
		tour.NewTourPackageService(storage.NewTourPackageRepository(pool)),
		seed.NewFactory(*seedValue),
		*concurrency,
		revisions,
		log,
	)

	res, err := seeder.Run(ctx)
	if err != nil {
		return err
	}

	for _, c := range res.Categories {
		log.Info("category ready", "id", c.ID, "name", c.Name)
	}
	log.Info("seeding complete",
		"seed", *seedValue,
		"categories", len(res.Categories),
		"categories_created", res.CreatedCategories,
		"packages_created", res.Packages,
	)
	return nil
}
