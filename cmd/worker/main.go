// LitFed cache-warmer worker.  Consumes results-persisted events and applies
// them to the shared persisted-DOI cache so that API instances other than the
// one that wrote the records see them without a database round trip.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/database/redis"
	"github.com/turtacn/LitFed/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka is disabled; the worker has nothing to consume")
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logger.Info("starting LitFed cache-warmer worker")

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewPersistedDOICache(redisClient, cfg.Redis, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka, cache, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	cancel()
	if err := consumer.Close(); err != nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
