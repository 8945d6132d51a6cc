package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/project-docs/internal/api/http"
	"github.com/spec-kit/project-docs/internal/api/http/handlers"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/config"
	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/fetcher"
	"github.com/spec-kit/project-docs/internal/observability"
	"github.com/spec-kit/project-docs/internal/persistence"
	"github.com/spec-kit/project-docs/internal/repository"
	"github.com/spec-kit/project-docs/internal/service"
	"github.com/spec-kit/project-docs/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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
	pool := pg.PoolHandle()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(nil)

	userRepo := repository.NewUserRepository(pool)
	platformRepo := repository.NewPlatformRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	deliverableRepo := repository.NewDeliverableRepository(pool)
	receiptRepo := repository.NewReceiptRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	deliverer := worker.StartNotificationWorker(ctx, dispatcher, cfg.Notification.WebhookURL, logger)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL())
	gate := auth.NewGate(service.NewOwnershipResolver(projectRepo, deliverableRepo))

	dataFetcher := fetcher.New(
		fetcher.NewSQLFetcher(seconds(cfg.Fetcher.SQLTimeoutSeconds), nil),
		fetcher.NewAPIFetcher(nil, seconds(cfg.Fetcher.APITimeoutSeconds), seconds(cfg.Fetcher.ProbeTimeoutSeconds)),
		logger,
		fetcher.WithObserver(metrics),
	)
	defer dataFetcher.Close() //nolint:errcheck

	authService, err := service.NewAuthService(service.AuthDependencies{
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		Issuer:         issuer,
		Attempts:       auth.NewRedisAttemptLimiter(redis.Cmdable(), cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow()),
		Logger:         logger,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	userService := service.NewUserService(userRepo, logger, cfg.Auth.BcryptCost)
	platformService := service.NewPlatformService(service.PlatformDependencies{
		PlatformRepo:   platformRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo:    projectRepo,
		PlatformRepo:   platformRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		Gate:           gate,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	deliverableService := service.NewDeliverableService(service.DeliverableDependencies{
		DeliverableRepo: deliverableRepo,
		ProjectRepo:     projectRepo,
		ReceiptRepo:     receiptRepo,
		AssignmentRepo:  assignmentRepo,
		Fetcher:         dataFetcher,
		Gate:            gate,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})

	readiness := map[string]handlers.Pinger{"postgres": pg, "redis": nil}
	if redis.Cmdable() != nil {
		readiness["redis"] = redis
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Platforms:      handlers.NewPlatformsHandler(platformService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Deliverables:   handlers.NewDeliverablesHandler(deliverableService),
		AuthMiddleware: auth.NewAuthMiddleware(issuer, logger),
		Gate:           gate,
		Metrics:        metrics,
		LoginRate:      cfg.Auth.LoginRatePerSecond,
		LoginBurst:     cfg.Auth.LoginRateBurst,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	if deliverer != nil {
		deliverer.Wait()
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
