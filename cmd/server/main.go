package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Sri-Express/Backend-sub004/internal/auth"
	"github.com/Sri-Express/Backend-sub004/internal/config"
	"github.com/Sri-Express/Backend-sub004/internal/engine"
	"github.com/Sri-Express/Backend-sub004/internal/ingest"
	"github.com/Sri-Express/Backend-sub004/internal/logging"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
	"github.com/Sri-Express/Backend-sub004/internal/server"
	"github.com/Sri-Express/Backend-sub004/internal/store"
	"github.com/Sri-Express/Backend-sub004/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config) *store.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := store.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("Redis not configured, ingest bridge disabled")
		return nil
	}

	client, err := ingest.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, heartbeat *engine.Heartbeat, cancelIngest context.CancelFunc, db *store.DB, redisClient *goredis.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		srv.CloseAllConnections()
		heartbeat.Stop()
		cancelIngest()

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				slog.Error("Redis close error", "error", err)
			}
		}

		closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelClose()
		if err := db.Close(closeCtx); err != nil {
			slog.Error("MongoDB close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	db := setupStore(cfg)

	ingestCtx, cancelIngest := context.WithCancel(context.Background())
	defer cancelIngest()
	redisClient := setupRedis(ingestCtx, cfg)

	userRepo := store.NewUserRepo(db)
	alertRepo := store.NewAlertRepo(db)

	promReg := metrics.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(promReg)

	registry := engine.NewRegistry(engineMetrics)
	router := engine.NewRouter(registry)
	dispatcher := engine.NewDispatcher(registry, engineMetrics, cfg.DispatchConcurrency)
	snapshot := engine.NewSnapshotProvider(alertRepo, cfg.SnapshotLimit, clock, engineMetrics)

	heartbeat := engine.NewHeartbeat(registry, clock, cfg.HeartbeatInterval, engineMetrics)
	heartbeat.Start()

	gate := auth.NewGate(cfg.JWTSecret, userRepo, cfg.AuthTimeout)

	srv := server.NewServer(cfg, clock, gate, registry, router, snapshot, db, redisClient, engineMetrics, promReg)

	if redisClient != nil {
		subscriber := ingest.NewSubscriber(redisClient, dispatcher, engineMetrics)
		go subscriber.Start(ingestCtx)
	}

	done := runGracefulShutdown(srv, heartbeat, cancelIngest, db, redisClient)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
