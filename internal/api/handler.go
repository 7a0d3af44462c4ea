package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/importer"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/model"
	"personnel-registry/internal/registry"
	"personnel-registry/internal/storage"
	"personnel-registry/pkg/checksum"
	"personnel-registry/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const uploadField = "excel"

// ImportQueue accepts asynchronous import jobs.
type ImportQueue interface {
	EnqueueImportJob(ctx context.Context, job model.ImportJob) error
}

// JobStore tracks asynchronous import jobs.
type JobStore interface {
	Save(ctx context.Context, state model.ImportJobState) error
	Get(ctx context.Context, jobID string) (*model.ImportJobState, error)
}

type Handler struct {
	records  *registry.Service
	importer *importer.Importer
	uploads  storage.Storage
	queue    ImportQueue
	jobs     JobStore
	cfg      *config.Config
	log      zerolog.Logger
}

func NewHandler(
	records *registry.Service,
	importer *importer.Importer,
	cfg *config.Config,
) *Handler {
	return &Handler{
		records:  records,
		importer: importer,
		cfg:      cfg,
		log:      logger.Component("api"),
	}
}

// WithAsyncImports enables POST /imports and GET /imports/:id.
func (h *Handler) WithAsyncImports(uploads storage.Storage, queue ImportQueue, jobs JobStore) *Handler {
	h.uploads = uploads
	h.queue = queue
	h.jobs = jobs
	return h
}

func (h *Handler) asyncEnabled() bool {
	return h.uploads != nil && h.queue != nil && h.jobs != nil
}

// readUpload returns the bytes and name of the multipart "excel" file.
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Import.MaxUploadBytes)

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, "", errors.ValidationError{Field: uploadField, Value: tooLarge.Limit, Message: "file exceeds upload limit"}
		}
		return nil, "", errors.ErrFileNotFound
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	return data, fileHeader.Filename, nil
}

// rejectUpload answers client errors from readUpload and reports whether it did.
func (h *Handler) rejectUpload(c *gin.Context, err error) bool {
	var verr errors.ValidationError
	switch {
	case stderrors.Is(err, errors.ErrFileNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
	case stderrors.As(err, &verr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large", "error": verr.Error()})
	default:
		return false
	}
	return true
}

func (h *Handler) Upload(c *gin.Context) {
	data, fileName, err := h.readUpload(c)
	if err != nil {
		if h.rejectUpload(c, err) {
			return
		}
		h.log.Error().Err(err).Msg("Failed to read upload")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing file", "error": err.Error()})
		return
	}

	log := h.log.With().Str("file_name", fileName).Int("bytes", len(data)).Logger()
	log.Info().Msg("Processing upload")

	report, err := h.importer.ImportFile(c.Request.Context(), data)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidFileFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid Excel file", "error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("Upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing file", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListUsers(c *gin.Context) {
	records, err := h.records.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list records")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching users"})
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

func (h *Handler) Search(c *gin.Context) {
	records, err := h.records.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to search records")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error searching user"})
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

func (h *Handler) Lookup(c *gin.Context) {
	records, err := h.records.Lookup(c.Request.Context(), c.Param("query"))
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No user found"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to look up record")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error searching user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Found %d", len(records)),
		"data":    records,
	})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	record, err := h.records.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrMissingIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Code No or Aadhaar required"})
		case stderrors.Is(err, errors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"message": "Duplicate code or aadhaar exists"})
		default:
			h.log.Error().Err(err).Msg("Failed to create record")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": record})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var req model.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	record, err := h.records.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		case stderrors.Is(err, errors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case stderrors.Is(err, errors.ErrMissingIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Code No or Aadhaar required"})
		case stderrors.Is(err, errors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"message": "Another user with same code/adhaar exists"})
		default:
			h.log.Error().Err(err).Str("id", id).Msg("Failed to update record")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": record})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if err := h.records.Delete(c.Request.Context(), id); err != nil {
		switch {
		case stderrors.Is(err, errors.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		case stderrors.Is(err, errors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		default:
			h.log.Error().Err(err).Str("id", id).Msg("Failed to delete record")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No ids provided"})
		return
	}

	deleted, err := h.records.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		var verr errors.ValidationError
		switch {
		case stderrors.As(err, &verr), stderrors.Is(err, errors.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ids", "error": err.Error()})
		default:
			h.log.Error().Err(err).Msg("Failed to bulk delete records")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error bulk deleting"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Deleted %d users", deleted),
		"deleted": deleted,
	})
}

// EnqueueImport archives the upload and queues it for the ingestion worker.
func (h *Handler) EnqueueImport(c *gin.Context) {
	if !h.asyncEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Asynchronous imports are not configured"})
		return
	}

	data, fileName, err := h.readUpload(c)
	if err != nil {
		if h.rejectUpload(c, err) {
			return
		}
		h.log.Error().Err(err).Msg("Failed to read upload")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing file"})
		return
	}

	ctx := c.Request.Context()
	sum := checksum.SumBytes(data)
	key := storage.UploadKey(h.cfg.Storage.S3.Prefix, sum, fileName)
	log := h.log.With().Str("s3_path", key).Logger()

	exists, err := h.uploads.Exists(ctx, key)
	if err != nil || !exists {
		if err := h.uploads.Upload(ctx, key, bytes.NewReader(data)); err != nil {
			log.Error().Err(err).Msg("Failed to archive upload")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store file"})
			return
		}
	}

	job := model.ImportJob{
		ID:         uuid.NewString(),
		S3Path:     key,
		FileName:   fileName,
		Checksum:   sum,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := h.jobs.Save(ctx, model.ImportJobState{JobID: job.ID, Status: model.JobStatusQueued, FileName: fileName}); err != nil {
		log.Error().Err(err).Msg("Failed to save job state")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to queue import job"})
		return
	}

	if err := h.queue.EnqueueImportJob(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue import job")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to queue import job"})
		return
	}

	log.Info().Str("job_id", job.ID).Msg("Import job enqueued")

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Import job queued successfully",
		"job":     job,
	})
}

func (h *Handler) GetImport(c *gin.Context) {
	if !h.asyncEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Asynchronous imports are not configured"})
		return
	}

	state, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if stderrors.Is(err, errors.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Import job not found"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to get import job")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

func nonNil(records []model.Record) []model.Record {
	if records == nil {
		return []model.Record{}
	}
	return records
}
