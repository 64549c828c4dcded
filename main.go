package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/TrailParty/trail-party-backend/config"
	"github.com/TrailParty/trail-party-backend/db"
	"github.com/TrailParty/trail-party-backend/handlers"
	"github.com/TrailParty/trail-party-backend/internal/events"
	"github.com/TrailParty/trail-party-backend/internal/store/postgres"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/router"
	"github.com/TrailParty/trail-party-backend/services"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connection
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnString())
	if err != nil {
		log.Fatalf("Failed to parse database config: %v", err)
	}
	if cfg.IsProduction() {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{
			ServerName: cfg.Database.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	if cfg.Database.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if lifetime, err := time.ParseDuration(cfg.Database.ConnMaxLife); err == nil {
		poolConfig.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Apply pending schema migrations before serving traffic
	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis client with TLS in production
	redisOptions := &redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warnw("Failed to close Redis client", "error", err)
		}
	}()

	// Stores
	grantStore := postgres.NewPgGrantStore(pool)
	companionStore := postgres.NewPgCompanionStore(pool)
	delegateStore := postgres.NewPgDelegateStore(pool)

	// Event publishing
	publisher := events.NewRedisPublisher(redisClient, events.Config{
		PublishTimeout: time.Duration(cfg.EventService.PublishTimeoutSeconds) * time.Second,
	})

	// Services
	cascadeService := services.NewCascadeService(grantStore, companionStore, publisher, cfg.Cascade)
	resolver := services.NewPermissionResolver(grantStore, companionStore, delegateStore)

	// Handlers
	companionHandler := handlers.NewCompanionHandler(cascadeService, resolver)
	permissionHandler := handlers.NewPermissionHandler(resolver)
	healthHandler := handlers.NewHealthHandler(
		handlers.HealthCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				return pool.Ping(ctx)
			},
		},
		handlers.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	)

	r := router.SetupRouter(router.Dependencies{
		Config:            cfg,
		CompanionHandler:  companionHandler,
		PermissionHandler: permissionHandler,
		HealthHandler:     healthHandler,
		Logger:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}
}
