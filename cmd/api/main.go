package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/config"
	"github.com/eventmanager/booking-service/internal/infrastructure/postgres"
	"github.com/eventmanager/booking-service/internal/infrastructure/redis"
	"github.com/eventmanager/booking-service/internal/logger"
	"github.com/eventmanager/booking-service/internal/security"
	"github.com/eventmanager/booking-service/internal/service"
	"github.com/eventmanager/booking-service/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "booking-service").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := pgxpool.New(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool create failed")
	}
	defer dbPool.Close()

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		defer cancel()

		if err := dbPool.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")
	}

	repo := postgres.New(dbPool)

	// ---- Redis ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		// Best-effort; the cache fails open.
		if err := cache.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Services ----
	clock := service.NewClock()
	aud := audit.New(logger.Logger)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	userSvc := service.NewUserService(repo.Users(), hasher, signer, aud, clock, cfg.AccessTokenTTL)
	eventSvc := service.NewEventService(repo.Events(), cache, aud, clock, cfg.CacheAvailabilityTTL)
	reservationSvc := service.NewReservationService(repo.Reservations(), repo.Events(), cache, aud, clock)

	// ---- Router ----
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Handler:   rest.NewHandler(userSvc, eventSvc, reservationSvc),
		Verifier:  signer,
		Cache:     cache,
		JWTIssuer: cfg.JWTIssuer,
		RLEnabled: cfg.RLEnabled,
		RLLimit:   cfg.RLLimit,
		RLWindow:  cfg.RLWindow,
	})

	// ---- Background workers ----
	if cfg.OutboxEnabled {
		repo.StartOutboxWorker(rootCtx, cfg.RabbitURL, cfg.RabbitExchange)
		log.Info().Msg("outbox worker started")
	}
	if cfg.ExpiryEnabled {
		repo.StartExpiryWorker(rootCtx, cfg.ExpiryInterval, cfg.ExpiryMaxAge)
		log.Info().Msg("expiry worker started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
