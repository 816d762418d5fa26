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

	"github.com/hibiken/asynq"

	"github.com/showcase-api/showcase/internal/app"
	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/cache"
	"github.com/showcase-api/showcase/internal/categories"
	"github.com/showcase-api/showcase/internal/examples"
	"github.com/showcase-api/showcase/internal/observability"
	platformcache "github.com/showcase-api/showcase/internal/platform/cache"
	platformdb "github.com/showcase-api/showcase/internal/platform/db"
	"github.com/showcase-api/showcase/internal/users"
	"github.com/showcase-api/showcase/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := platformdb.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The gateway fails open, so a dead Redis only degrades caching.
	redisClient, err := platformcache.New(ctx, cfg.RedisAddr, cfg.RedisCacheDB)
	if err != nil {
		logger.Warn("redis unavailable, cache degrades to miss", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	gateway := cache.New(redisClient, cfg.CacheTTL, logger, metrics)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	mailer := jobs.NewConfirmationMailer(jobsClient)

	categoriesService := categories.NewService(categories.NewRepository(pool), gateway)
	examplesService := examples.NewService(examples.NewRepository(pool), gateway)
	usersService := users.NewService(users.NewRepository(pool), gateway, mailer, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CategoriesHandler: categories.NewHandler(logger, categoriesService, authService),
		ExamplesHandler:   examples.NewHandler(logger, examplesService, authService),
		UsersHandler:      users.NewHandler(logger, usersService, authService),
		JobsHandler:       jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
