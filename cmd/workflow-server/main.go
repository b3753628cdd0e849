// cmd/workflow-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"provider-workflow/internal/cache"
	"provider-workflow/internal/common/aws"
	"provider-workflow/internal/common/config"
	"provider-workflow/internal/common/database"
	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/common/observability"
	"provider-workflow/internal/notify"
	"provider-workflow/internal/server"
	"provider-workflow/internal/store"
	"provider-workflow/internal/workflow"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting workflow server...",
		zap.String("name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.Postgres); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		zapLog.Info("Migrations applied")
	}

	// --- Notification clients ---
	var sesClient *aws.SESClient
	if cfg.Notifications.Email.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}

	var snsClient *aws.SNSClient
	if cfg.Notifications.SMS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}

	dispatcher := notify.NewDispatcher(cfg.Notifications, pg.GetDB(), sesClient, snsClient, log)

	// --- Core workflow ---
	st := store.New(pg.GetDB(), log)

	opts := []workflow.Option{
		workflow.WithDispatchTimeout(time.Duration(cfg.Notifications.DispatchTimeout) * time.Millisecond),
	}

	var redisClient *database.RedisClient
	if cfg.Database.Redis.CountsEnabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")

		counts := cache.NewStatusCounts(
			redisClient.GetClient(),
			time.Duration(cfg.Database.Redis.CountsTTL)*time.Second,
			log,
		)
		opts = append(opts, workflow.WithCountsCache(counts))
	}

	engine := workflow.NewEngine(st, st, dispatcher, log, opts...)

	// --- HTTP server ---
	srv := server.New(cfg, engine, log, obs)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	case sig := <-quit:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}

	zapLog.Info("Workflow server stopped")
}
