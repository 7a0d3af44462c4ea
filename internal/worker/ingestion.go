package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"personnel-registry/internal/config"
	"personnel-registry/internal/db"
	"personnel-registry/internal/importer"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/model"
	"personnel-registry/internal/queue"
	"personnel-registry/internal/storage"
	"personnel-registry/pkg/checksum"

	"github.com/rs/zerolog"
)

// JobStatusWriter records the progress of an import job.
type JobStatusWriter interface {
	Save(ctx context.Context, state model.ImportJobState) error
}

type IngestionWorker struct {
	storage    storage.Storage
	importer   *importer.Importer
	jobs       JobStatusWriter
	consumer   *queue.Consumer
	workerPool *WorkerPool
	log        zerolog.Logger
}

func NewIngestionWorker(
	cfg *config.Config,
	repo db.Repository,
	storage storage.Storage,
	redisClient *queue.RedisClient,
) (*IngestionWorker, error) {
	im, err := importer.New(repo, importer.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &IngestionWorker{
		storage:    storage,
		importer:   im,
		jobs:       queue.NewJobStore(redisClient, cfg),
		consumer:   queue.NewConsumer(redisClient, cfg),
		workerPool: NewWorkerPool(cfg.Workers.Ingestion.Count),
		log:        logger.Component("ingestion-worker"),
	}, nil
}

// Start consumes the import queue until ctx is cancelled. Jobs already handed
// to the pool keep running after that; Stop waits for them.
func (w *IngestionWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting ingestion worker")

	w.workerPool.Start(context.WithoutCancel(ctx))

	return w.consumer.ConsumeImportQueue(ctx, w.handleMessage)
}

func (w *IngestionWorker) Stop() {
	w.log.Info().Msg("Stopping ingestion worker")
	w.workerPool.Stop()
}

// handleMessage hands a job to the pool. An error sends the message to the
// dead letter list.
func (w *IngestionWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal import job")
		return err
	}

	w.log.Info().Str("job_id", job.ID).Str("s3_path", job.S3Path).Msg("Processing import job")

	err := w.workerPool.Submit(func(ctx context.Context) error {
		return w.processJob(ctx, job)
	})
	if err != nil {
		w.saveState(ctx, w.log.With().Str("job_id", job.ID).Logger(), model.ImportJobState{
			JobID:    job.ID,
			Status:   model.JobStatusFailed,
			FileName: job.FileName,
			Error:    err.Error(),
		})
		return err
	}
	return nil
}

func (w *IngestionWorker) processJob(ctx context.Context, job model.ImportJob) error {
	log := w.log.With().Str("job_id", job.ID).Logger()

	w.saveState(ctx, log, model.ImportJobState{
		JobID:    job.ID,
		Status:   model.JobStatusProcessing,
		FileName: job.FileName,
	})

	report, err := w.runImport(ctx, log, job)
	if err != nil {
		log.Error().Err(err).Msg("Import job failed")
		w.saveState(ctx, log, model.ImportJobState{
			JobID:    job.ID,
			Status:   model.JobStatusFailed,
			FileName: job.FileName,
			Error:    err.Error(),
		})
		return err
	}

	w.saveState(ctx, log, model.ImportJobState{
		JobID:    job.ID,
		Status:   model.JobStatusDone,
		FileName: job.FileName,
		Report:   report,
	})

	log.Info().Int("inserted", report.Inserted).Int("skipped", report.Skipped).Msg("Import job processed successfully")
	return nil
}

func (w *IngestionWorker) runImport(ctx context.Context, log zerolog.Logger, job model.ImportJob) (*model.ImportReport, error) {
	log.Debug().Str("s3_path", job.S3Path).Msg("Downloading file from S3")
	reader, err := w.storage.Download(ctx, job.S3Path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}

	if job.Checksum != "" {
		if sum := checksum.SumBytes(data); sum != job.Checksum {
			return nil, fmt.Errorf("checksum mismatch for %s: got %s, want %s", job.S3Path, sum, job.Checksum)
		}
	}

	log.Debug().Int("bytes", len(data)).Msg("Importing Excel file")
	return w.importer.ImportFile(ctx, data)
}

func (w *IngestionWorker) saveState(ctx context.Context, log zerolog.Logger, state model.ImportJobState) {
	if err := w.jobs.Save(ctx, state); err != nil {
		log.Error().Err(err).Str("status", string(state.Status)).Msg("Failed to save job state")
	}
}
