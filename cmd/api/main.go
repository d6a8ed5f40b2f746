package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/care-scheduling-service/internal/api/http"
	"github.com/spec-kit/care-scheduling-service/internal/api/http/handlers"
	"github.com/spec-kit/care-scheduling-service/internal/auth"
	"github.com/spec-kit/care-scheduling-service/internal/config"
	"github.com/spec-kit/care-scheduling-service/internal/events"
	"github.com/spec-kit/care-scheduling-service/internal/observability"
	"github.com/spec-kit/care-scheduling-service/internal/persistence"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/security"
	"github.com/spec-kit/care-scheduling-service/internal/service"
	"github.com/spec-kit/care-scheduling-service/internal/worker"
)

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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	refreshRepo := repository.NewRefreshTokenRepository(pool)
	attemptRepo := repository.NewLoginAttemptRepository(pool)
	professionalRepo := repository.NewProfessionalRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		RefreshTokenRepo: refreshRepo,
		LoginAttemptRepo: attemptRepo,
	})
	professionalService := service.NewProfessionalService(professionalRepo)
	appointmentService := service.NewAppointmentService(appointmentRepo, professionalRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()

	limiterStore := newLimiterStore(ctx, cfg, redis, logger)
	rateLimit := security.RateLimit(limiterStore, cfg.Security.RateLimitThreshold, metrics, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, cfg, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Professionals:  handlers.NewProfessionalsHandler(professionalService),
		Appointments:   handlers.NewAppointmentsHandler(appointmentService),
		Monitoring:     handlers.NewMonitoringHandler(metrics),
		AuthMiddleware: authMiddleware,
		RateLimit:      rateLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// newLimiterStore prefers the Redis-backed limiter so limits hold across
// replicas, falling back to the in-process store when Redis is unreachable.
func newLimiterStore(ctx context.Context, cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) security.LimiterStore {
	if redis.Available(ctx) {
		return security.NewRedisLimiterStore(redis.Client, cfg.Security.RateLimitThreshold, cfg.Security.RateLimitWindow())
	}

	logger.Warn("redis unavailable; using in-memory rate limiter")
	store := security.NewMemoryLimiterStore(cfg.Security.RateLimitThreshold, cfg.Security.RateLimitWindow())
	store.StartJanitor(ctx)
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
