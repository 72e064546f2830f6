// LitFed API server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/LitFed/internal/application/federation"
	appreview "github.com/turtacn/LitFed/internal/application/review"
	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/database/postgres"
	"github.com/turtacn/LitFed/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/LitFed/internal/infrastructure/database/redis"
	"github.com/turtacn/LitFed/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/LitFed/internal/interfaces/http"
	"github.com/turtacn/LitFed/internal/interfaces/http/handlers"
	"github.com/turtacn/LitFed/internal/interfaces/http/middleware"
	"github.com/turtacn/LitFed/internal/provider"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("port", 0, "HTTP server port (overrides config)")
	skipMigrations := flag.Bool("skip-migrations", false, "do not run schema migrations on startup")
	flag.Parse()

	if err := run(*configPath, *httpPort, *skipMigrations); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, portOverride int, skipMigrations bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logger.Info("starting LitFed API server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)

	ctx := context.Background()

	// Result store.
	if !skipMigrations && cfg.Database.MigrationPath != "" {
		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return err
		}
		logger.Info("schema migrations applied")
	}
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	reviewRepo := repositories.NewReviewRepository(conn.Pool(), logger)
	resultRepo := repositories.NewResultRepository(conn.Pool(), logger)

	// Persisted-DOI cache.
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	persistedCache := redis.NewPersistedDOICache(redisClient, cfg.Redis, logger)
	queryCache := redis.NewQueryCache(redisClient, cfg.Redis, logger)

	// Domain events.  A disabled broker yields a nil publisher, which the
	// orchestrator treats as a no-op.
	publisher, err := kafka.NewPublisher(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	metrics := prometheus.New()

	// Provider wrappers and application services.
	registry := provider.NewRegistry(cfg.Providers, provider.NewKeyProvider(cfg.Providers), logger)
	fedService := federation.NewService(
		registry, reviewRepo, resultRepo, persistedCache, publisher, metrics,
		cfg.Federation, logger,
	)
	reviewService := appreview.NewService(reviewRepo, resultRepo, persistedCache, logger)

	// HTTP interface.
	auth := middleware.NewAuthMiddleware(cfg.Auth, middleware.NewStaticTokenVerifier(cfg.Auth), logger)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		QueryHandler:  handlers.NewQueryHandler(fedService, logger).WithEnvelopeCache(queryCache),
		ReviewHandler: handlers.NewReviewHandler(reviewService, logger),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.DependencyChecker{
			"postgres": conn.HealthCheck,
			"redis":    redisClient.Ping,
		}, logger),
		Auth:           auth,
		MetricsHandler: metrics.Handler(),
		HTTPObserver:   metrics,
		Server:         cfg.Server,
		Logger:         logger,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	if err := srv.Stop(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// loadConfig reads the config file when present, falling back to pure
// environment configuration for containerised deployments.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
