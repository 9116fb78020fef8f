package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/claritytracking/clarity-go/internal/config"
	"github.com/claritytracking/clarity-go/internal/crypto"
	"github.com/claritytracking/clarity-go/internal/handler"
	"github.com/claritytracking/clarity-go/internal/middleware"
	"github.com/claritytracking/clarity-go/internal/repository"
	"github.com/claritytracking/clarity-go/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database setup failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	policy, err := config.NewPolicyLoader(cfg.HealthPolicyPath)
	if err != nil {
		slog.Error("health policy load failed", "path", cfg.HealthPolicyPath, "error", err)
		os.Exit(1)
	}
	policy.OnChange(func(p *config.HealthPolicy) {
		slog.Info("health policy reloaded", "summary_window", p.SummaryWindow, "min_score", p.MinScore)
	})
	stopWatch, err := policy.Watch()
	if err != nil {
		slog.Warn("health policy hot reload disabled", "error", err)
	} else {
		defer stopWatch()
	}

	hasher := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	tokens := crypto.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	userRepo := repository.NewUserRepository(db)
	websiteRepo := repository.NewWebsiteRepository(db)
	eventRepo := repository.NewEventRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	gate := service.NewAccessGateway(websiteRepo)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          handler.NewAuthHandler(service.NewAuthService(userRepo, hasher, tokens)),
		Websites:      handler.NewWebsiteHandler(service.NewWebsiteService(websiteRepo, gate)),
		Events:        handler.NewEventHandler(service.NewEventService(eventRepo, gate)),
		Health:        handler.NewHealthHandler(service.NewHealthService(eventRepo, gate, policy)),
		Waitlist:      handler.NewWaitlistHandler(service.NewWaitlistService(waitlistRepo)),
		Tokens:        tokens,
		AuthLimiter:   middleware.NewIPRateLimiter(ctx, cfg.AuthRateLimit, cfg.AuthRateBurst),
		IngestLimiter: middleware.NewIPRateLimiter(ctx, cfg.IngestRateLimit, cfg.IngestRateBurst),
		CORSOrigins:   cfg.CORSOrigins,
		Ready:         db.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
