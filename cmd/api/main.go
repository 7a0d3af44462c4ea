package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"personnel-registry/internal/api"
	"personnel-registry/internal/config"
	"personnel-registry/internal/db"
	"personnel-registry/internal/importer"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/queue"
	"personnel-registry/internal/registry"
	"personnel-registry/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Str("driver", cfg.Database.Driver).Msg("Starting API server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Mongo.Timeout)
	repo, err := db.Open(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.PrepareSchema(ctx, repo, logger.Component("schema")); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}
	cancel()
	defer repo.Close(context.Background())

	im, err := importer.New(repo, importer.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create importer")
	}

	records := registry.NewService(repo, registry.Options{UppercaseNames: cfg.Import.UppercaseNames})
	handler := api.NewHandler(records, im, cfg)

	// Async imports need both Redis and a bucket; without them the API
	// still serves synchronous uploads.
	if cfg.Storage.S3.Bucket != "" {
		redisClient, err := queue.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		s3Storage, err := storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}

		handler.WithAsyncImports(s3Storage, queue.NewProducer(redisClient, cfg), queue.NewJobStore(redisClient, cfg))
		log.Info().Str("bucket", cfg.Storage.S3.Bucket).Msg("Asynchronous imports enabled")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
