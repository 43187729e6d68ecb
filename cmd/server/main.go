package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homekeeper/household-api/internal/api"
	"github.com/homekeeper/household-api/internal/core/ports"
	"github.com/homekeeper/household-api/internal/core/service"
	"github.com/homekeeper/household-api/internal/infrastructure/config"
	mongodb "github.com/homekeeper/household-api/internal/infrastructure/db/mongo"
	redisdb "github.com/homekeeper/household-api/internal/infrastructure/db/redis"
	"github.com/homekeeper/household-api/internal/infrastructure/sweeper"
	"github.com/homekeeper/household-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewTokenRepository(db)
	roleRepo := mongodb.NewRoleRepository(db)
	balanceRepo := mongodb.NewBalanceRepository(db)

	// Canonical roles must exist before any registration can resolve them.
	if err := roleRepo.EnsureDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("role seeding failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	var revoked ports.RevocationCache
	if err != nil {
		// The store is authoritative; without the cache every guard check
		// pays the extra read, nothing more.
		log.Warn().Err(err).Msg("redis unavailable, running without revocation cache")
	} else {
		revoked = redisdb.NewRevocationCache(rdb)
		defer func() { _ = rdb.Close() }()
	}

	authService := service.NewAuthService(userRepo, tokenRepo, revoked, cfg.JWTSecret, cfg.TokenTTL, log)
	userService := service.NewUserService(userRepo, roleRepo, tokenRepo, balanceRepo, cfg.RegisterAllowedIP, log)

	sweeper.New(authService, cfg.SweepInterval, log).Start(ctx)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		UserService: userService,
		Tokens:      tokenRepo,
		Revoked:     revoked,
		JWTSecret:   cfg.JWTSecret,
		Mongo:       db,
		Redis:       rdb,
		Logger:      log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}
}
