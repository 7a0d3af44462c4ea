package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"personnel-registry/internal/config"
	"personnel-registry/internal/db"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/queue"
	"personnel-registry/internal/storage"
	"personnel-registry/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting ingestion worker")

	openCtx, openCancel := context.WithTimeout(context.Background(), cfg.Database.Mongo.Timeout)
	repo, err := db.Open(openCtx, cfg)
	openCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close(context.Background())

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	ingestionWorker, err := worker.NewIngestionWorker(cfg, repo, s3Storage, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ingestion worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := ingestionWorker.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Ingestion worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down ingestion worker...")

	// Stop consuming first, then let the pool finish what it already holds.
	cancel()
	<-consumerDone
	ingestionWorker.Stop()

	log.Info().Msg("Ingestion worker exited")
}
