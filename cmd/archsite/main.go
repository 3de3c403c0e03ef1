package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archsite/internal/cms"
	"archsite/internal/config"
	"archsite/internal/content"
	"archsite/internal/handlers"
	"archsite/internal/media"
	"archsite/internal/middleware"
	"archsite/internal/router"
	"archsite/internal/storage"
	"archsite/internal/storage/sqlite"
	"archsite/internal/telemetry"

	"golang.org/x/time/rate"
)

type App struct {
	Server    *http.Server
	Logger    *slog.Logger
	Config    *config.Config
	Store     *sqlite.Store
	Blobs     storage.Blobs
	Processor *media.Processor
	// StopWorkers cancels the context the processor workers run on.
	StopWorkers context.CancelFunc
	Telemetry   *telemetry.Telemetry
}

func NewApp(cfg *config.Config, logger *slog.Logger, store *sqlite.Store, blobs storage.Blobs, processor *media.Processor, stopWorkers context.CancelFunc, tel *telemetry.Telemetry, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server:      server,
		Logger:      logger,
		Config:      cfg,
		Store:       store,
		Blobs:       blobs,
		Processor:   processor,
		StopWorkers: stopWorkers,
		Telemetry:   tel,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	var runErr error
	select {
	case err := <-srvErrChan:
		runErr = fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
		runErr = a.drain()
	}

	a.release()
	if runErr == nil {
		a.Logger.Info("server stopped")
	}
	return runErr
}

// drain stops accepting requests and waits for the running ones.
func (a *App) drain() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// release stops the background work and closes every backend. It runs on
// every exit path of Run.
func (a *App) release() {
	// let the running variant jobs finish
	a.StopWorkers()
	a.Processor.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		a.Logger.Warn("telemetry shutdown", "err", err)
	}
	if closer, ok := a.Blobs.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("media backend close", "err", err)
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("database close", "err", err)
	}
}

func newBlobs(cfg *config.Config) (storage.Blobs, error) {
	switch cfg.Media.Backend {
	case "s3":
		return storage.NewS3Store(cfg.S3)
	default:
		return storage.NewLocalStorage(cfg.Media.Root)
	}
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"media_backend", cfg.Media.Backend,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, telemetry.Options{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		Endpoint:       cfg.Metrics.OtelEndpoint,
		SampleRatio:    cfg.Metrics.TraceSampleRatio,
		Enabled:        cfg.Metrics.EnableTelemetry,
	}, logger)
	if err != nil {
		logger.Error("telemetry init", "err", err)
		os.Exit(1)
	}
	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init", "err", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open database", "err", err)
		os.Exit(1)
	}
	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	if err := handlers.EnsureAdmin(rootCtx, store, handlers.AdminBootstrap{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
		Reset:    cfg.Auth.ResetAdminPassword,
	}, logger); err != nil {
		logger.Error("could not provision admin", "err", err)
		os.Exit(1)
	}

	blobs, err := newBlobs(cfg)
	if err != nil {
		logger.Error("could not create media backend", "err", err)
		os.Exit(1)
	}

	mediaStore := media.NewStore(blobs, cfg.Media.URLPrefix, logger)
	reconciler := media.NewReconciler(mediaStore, metrics, logger)
	workerCtx, stopWorkers := context.WithCancel(rootCtx)
	processor := media.NewProcessor(workerCtx, blobs, cfg.Media.VariantWorkers, logger)

	services := handlers.Services{
		Query:    cms.NewQuery(store),
		Manager:  cms.NewManager(store, mediaStore, reconciler, metrics, logger),
		Contacts: cms.NewContacts(store, metrics, logger),
		Pages:    cms.NewPages(store, logger),
	}
	renderer := content.NewMarkDownRenderer(cfg.Media.URLPrefix, media.VariantWidths...)

	sessions := middleware.NewSessionManager(cfg.Auth.SessionTTL, cfg.IsProd(), store.RawDB())
	csrf := middleware.NewCSRF(cfg.IsProd(), router.ContactAPIPath)
	csp := middleware.NewCSP(cfg.IsProd())

	limiter := middleware.NewIPRateLimiter(rootCtx, rate.Limit(cfg.Limiter.RPS), cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)
	authLimiter := middleware.NewIPRateLimiter(rootCtx, rate.Every(2*time.Second), 5, cfg.Proxy.Trusted, metrics)
	contactLimiter := middleware.NewIPRateLimiter(rootCtx, rate.Every(time.Minute), 5, cfg.Proxy.Trusted, metrics)

	siteHandler := handlers.NewSiteHandler(cfg.App.Name, services, store, sessions, renderer, cfg.Media.MaxUploadBytes, logger)
	mediaHandler := &handlers.MediaHandler{
		Media:     mediaStore,
		Processor: processor,
		Tracer:    tel.Tracer,
		Metrics:   metrics,
		Logger:    logger,
	}

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:            cfg,
		Logger:         logger,
		SiteHandler:    siteHandler,
		MediaHandler:   mediaHandler,
		Health:         store,
		Limiter:        limiter,
		AuthLimiter:    authLimiter,
		ContactLimiter: contactLimiter,
		Tracer:         tel.Tracer,
		Metrics:        metrics,
		Session:        sessions,
		CSRF:           csrf,
		CSP:            csp,
	})

	app := NewApp(cfg, logger, store, blobs, processor, stopWorkers, tel, handler)

	// run the app with context
	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
}
