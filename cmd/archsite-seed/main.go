package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"archsite/internal/cms"
	"archsite/internal/config"
	"archsite/internal/media"
	"archsite/internal/seed"
	"archsite/internal/storage"
	"archsite/internal/storage/sqlite"
	"archsite/internal/telemetry"

	"go.opentelemetry.io/otel/metric/noop"
)

func main() {
	dir := flag.String("dir", "./seed", "directory holding projects/, services/, news/ and pages/")
	flag.Parse()

	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})).With("app", "archsite-seed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dir, logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) error {
	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var blobs storage.Blobs
	switch cfg.Media.Backend {
	case "s3":
		blobs, err = storage.NewS3Store(cfg.S3)
	default:
		blobs, err = storage.NewLocalStorage(cfg.Media.Root)
	}
	if err != nil {
		return fmt.Errorf("media backend: %w", err)
	}

	// nothing to export to from a one-shot command
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
	if err != nil {
		return err
	}

	mediaStore := media.NewStore(blobs, cfg.Media.URLPrefix, logger)
	reconciler := media.NewReconciler(mediaStore, metrics, logger)

	s := &seed.Seeder{
		Entities: cms.NewManager(store, mediaStore, reconciler, metrics, logger),
		Pages:    cms.NewPages(store, logger),
		Logger:   logger,
	}

	res, err := s.Run(ctx, os.DirFS(dir))
	logger.Info("seed finished", "created", res.Created, "skipped", res.Skipped, "pages", res.Pages, "failed", res.Failed)
	return err
}
