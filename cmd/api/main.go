package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/event-gallery/internal/api/http"
	"github.com/spec-kit/event-gallery/internal/api/http/handlers"
	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/observability"
	"github.com/spec-kit/event-gallery/internal/persistence"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/service"
	"github.com/spec-kit/event-gallery/internal/storage"
	"github.com/spec-kit/event-gallery/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var repos repository.Repositories
	if pg.Enabled() {
		repos = repository.NewPostgresRepositories(pg.Pool)
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		repos = repository.NewMemoryRepositories()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := bus.NewInMemoryDispatcher(logger)

	notifications, err := worker.StartNotificationWorker(cfg.Broker, dispatcher, logger)
	if err != nil {
		logger.Fatal("failed to start notification worker", zap.Error(err))
	}
	defer notifications.Stop() //nolint:errcheck

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   repos.Users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:    repos.Events,
		AlbumRepo:    repos.Albums,
		MediaRepo:    repos.Media,
		Store:        store,
		Dispatcher:   dispatcher,
		Logger:       logger,
		ShareBaseURL: cfg.Share.BaseURL,
	})
	galleryService := service.NewGalleryService(cfg.Gallery, service.GalleryDependencies{
		EventRepo:    repos.Events,
		AlbumRepo:    repos.Albums,
		MediaRepo:    repos.Media,
		Store:        store,
		Dispatcher:   dispatcher,
		Logger:       logger,
		ShareBaseURL: cfg.Share.BaseURL,
	})

	app := httptransport.NewApp(httptransport.AppConfig{
		Name:           cfg.App.Name,
		MaxUploadBytes: cfg.Gallery.MaxUploadBytes,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		UploadLimit:    cfg.Gallery.MaxUploadBytes,
	})

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventService),
		Albums:         handlers.NewAlbumsHandler(galleryService),
		Media:          handlers.NewMediaHandler(galleryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger, metrics),
	}
	if redis.Enabled() {
		routes.RateLimit = httptransport.RateLimit(cfg.RateLimit, httptransport.NewRedisBucket(redis.Client, cfg.RateLimit), logger)
	}
	if local, ok := store.(*storage.Local); ok && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		routes.UploadDir = local.Root()
		routes.UploadPrefix = cfg.Storage.PublicBaseURL
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Storage.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
