package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/auth"
	"pychallenge-service/internal/config"
	"pychallenge-service/internal/infra/memory"
	pgstore "pychallenge-service/internal/infra/postgres"
	redisstore "pychallenge-service/internal/infra/redis"
	"pychallenge-service/internal/metrics"
	transport "pychallenge-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the challenge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)
	defer logger.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var store app.DocumentStore
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewDocumentStore(pool)
	case config.DriverRedis:
		if redisClient == nil {
			return fmt.Errorf("store driver redis needs redis.addr")
		}
		store = redisstore.NewDocumentStore(redisClient)
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewDocumentStore()
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	loader := app.NewChallengeLoader(store)
	cacheTTL := config.TTLDuration(cfg.Challenge.CacheTTL, 10*time.Minute)
	var challenges app.ChallengeRepository
	if redisClient != nil {
		challenges = redisstore.NewChallengeCache(redisClient, loader, cacheTTL)
	} else {
		challenges = memory.NewChallengeCache(loader, cacheTTL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	recorder := app.NewAttemptRecorder(store, logger, m)
	handler := transport.NewRouter(transport.Deps{
		Challenges:  app.NewChallengeService(store, challenges, logger, m),
		Leaderboard: app.NewLeaderboardService(store, cfg.Leaderboard.Window, m),
		Play:        app.NewPlayService(challenges, recorder, m),
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)),
		Logger:      logger,
		Metrics:     m,
		Gatherer:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting challenge service", zap.String("port", finalPort), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
