package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/config"
	"github.com/aminshahid573/authapi/internal/database"
	"github.com/aminshahid573/authapi/internal/handler"
	"github.com/aminshahid573/authapi/internal/middleware"
	"github.com/aminshahid573/authapi/internal/ratelimit"
	"github.com/aminshahid573/authapi/internal/repository"
	"github.com/aminshahid573/authapi/internal/router"
	"github.com/aminshahid573/authapi/internal/service"
	"github.com/aminshahid573/authapi/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Run wires the application together and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// track cleanup functions (LIFO order)
	cleanupFuncs := make([]func() error, 0)
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("Cleanup failed", "error", err)
			}
		}
	}()

	// Database
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	cleanupFuncs = append(cleanupFuncs, db.Close)
	logger.Info("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	// Redis
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	cleanupFuncs = append(cleanupFuncs, redisClient.Close)
	logger.Info("Connected to Redis")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	socialRepo := repository.NewSocialAccountRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, redisClient, cfg.JWT, logger)
	confirmationService := service.NewConfirmationService(
		redisClient, userRepo,
		time.Duration(cfg.Auth.ConfirmationKeyTTL)*time.Hour,
		logger,
	)
	resetService := service.NewPasswordResetService(
		redisClient, userRepo, authService,
		time.Duration(cfg.Auth.PasswordResetTTL)*time.Minute,
		logger,
	)
	socialService := service.NewSocialService(cfg.Google, userRepo, socialRepo, authService, logger)
	userService := service.NewUserService(userRepo)

	// Workers
	emailWorker, err := worker.NewEmailWorker(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("create email worker: %w", err)
	}
	workers := StartWorkers(ctx, emailWorker)
	cleanupFuncs = append(cleanupFuncs, func() error {
		workers.Stop()
		return nil
	})

	// Views
	links := handler.NewLinks(cfg.App.BaseURL, cfg.App.FrontendURL)
	authenticate := middleware.Authenticate(authService, logger)

	table, err := router.NewTable(router.TableConfig{
		Auth:         handler.NewAuthHandler(authService, resetService, emailWorker, links, logger),
		Registration: handler.NewRegistrationHandler(authService, confirmationService, emailWorker, links, logger),
		User:         handler.NewUserHandler(userService, logger),
		Social:       handler.NewSocialHandler(socialService, logger),
		Authenticate: authenticate,
		Throttle: func(scope string) func(http.Handler) http.Handler {
			return middleware.Throttle(redisClient, cfg.Throttle, scope, logger)
		},
		NotFound:    http.HandlerFunc(handler.NotFound),
		AppendSlash: cfg.Auth.AppendSlash,
	})
	if err != nil {
		return fmt.Errorf("build route table: %w", err)
	}
	logger.Info("Route table built", "routes", len(table.Routes()))

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.NewRateLimiter(cfg, redisClient, registry, logger,
			ratelimit.WithEndpointLabel(func(r *http.Request) string {
				return middleware.RouteLabel(table, r)
			}),
		)
		if err != nil {
			return fmt.Errorf("create rate limiter: %w", err)
		}
		cleanupFuncs = append(cleanupFuncs, limiter.Close)
	}

	namespace := cfg.RateLimit.MetricsNamespace
	if namespace == "" {
		namespace = cfg.App.Name
	}

	httpHandler := router.Setup(router.RouterConfig{
		Table:        table,
		Authenticate: authenticate,
		RateLimiter:  limiter,
		Metrics:      middleware.NewHTTPMetrics(namespace, registry, table),
		Gatherer:     registry,
		Checks: map[string]router.HealthCheck{
			"postgres": db.PingContext,
			"redis":    redisClient.Ping,
		},
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
