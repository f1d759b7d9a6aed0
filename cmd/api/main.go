package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/vibe-music/vibe-music-server/internal/api/http"
	"github.com/vibe-music/vibe-music-server/internal/api/http/handlers"
	"github.com/vibe-music/vibe-music-server/internal/auth"
	"github.com/vibe-music/vibe-music-server/internal/config"
	"github.com/vibe-music/vibe-music-server/internal/events"
	"github.com/vibe-music/vibe-music-server/internal/observability"
	"github.com/vibe-music/vibe-music-server/internal/persistence"
	"github.com/vibe-music/vibe-music-server/internal/repository"
	"github.com/vibe-music/vibe-music-server/internal/service"
	"github.com/vibe-music/vibe-music-server/internal/session"
	"github.com/vibe-music/vibe-music-server/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFiles := pflag.StringSlice("env-file", nil, "dotenv file to load (repeatable)")
	migrate := pflag.Bool("migrate", true, "apply SQL migrations on startup")
	pflag.Parse()

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if pflag.CommandLine.Changed("migrate") {
		cfg.Postgres.RunMigrations = *migrate
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	codeRepo := repository.NewVerificationCodeRepository(redis.Client)
	registry := session.NewRegistry(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, service.NewLogMailer(logger), cfg.Mail)
	worker.StartNotificationWorker(notifications, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:             userRepo,
		AdminRepo:            adminRepo,
		VerificationCodeRepo: codeRepo,
		Sessions:             registry,
		Dispatcher:           dispatcher,
		Logger:               logger,
	})

	allowList, err := auth.LoadAllowList(cfg.Auth.AllowListFile)
	if err != nil {
		logger.Fatal("failed to load allow-list", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	gatekeeper := auth.NewGatekeeper(allowList, registry, authService.TokenManager(), logger, metrics)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:      handlers.NewUsersHandler(authService),
		Admin:      handlers.NewAdminHandler(authService),
		Gatekeeper: gatekeeper,
		Metrics:    metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
