package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/halcyonlabs/halcyon/internal/api"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/config"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/storage"
	"github.com/halcyonlabs/halcyon/internal/tenant"
	"github.com/halcyonlabs/halcyon/pkg/logger"
)

func main() {
	// Absent .env files are fine; production relies on real env vars.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Setup(cfg.Environment)
	log.Info("starting", "env", cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	pool, err := storage.NewPostgres(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Error("redis url parse failed", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	log.Info("redis connected")

	userRepo := identity.NewPostgresRepository(pool)
	tenantRepo := tenant.NewPostgresRepository(pool)
	tenantService := tenant.NewService(tenantRepo)

	tokens := session.NewHMACProvider([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience)
	sessionStore := session.NewRedisStore(redisClient)
	sessionManager := session.NewManager(sessionStore, tokens, cfg.JWT.TTL, log)

	authService, err := auth.NewService(
		userRepo,
		tenantRepo,
		auth.NewArgon2idHasher(),
		auth.NewTOTPEngine(cfg.MFA.Issuer),
		sessionManager,
		rbac.NewEvaluator(),
		log,
	)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(authService, tenantService, pool, cfg.Server.CORSAllowedOrigins, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			_ = srv.Close()
		}
		log.Info("shutdown complete")
	}
}
