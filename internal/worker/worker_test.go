package worker

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"personnel-registry/internal/db"
	"personnel-registry/internal/importer"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/checksum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkerPool_RunsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewWorkerPool(2)
	pool.Start(ctx)

	var ran int32
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}

	pool.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&ran))
}

func TestWorkerPool_Full(t *testing.T) {
	pool := NewWorkerPool(1)

	noop := func(context.Context) error { return nil }
	require.NoError(t, pool.Submit(noop))
	require.NoError(t, pool.Submit(noop))
	assert.ErrorIs(t, pool.Submit(noop), ErrPoolFull)
}

func TestWorkerPool_DrainsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pool := NewWorkerPool(2)
	release := make(chan struct{})
	var ran int32
	job := func(context.Context) error {
		<-release
		atomic.AddInt32(&ran, 1)
		return nil
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Submit(job))
	}

	pool.Start(ctx)
	cancel()
	close(release)
	pool.Stop()

	assert.Equal(t, int32(4), atomic.LoadInt32(&ran))
}

type memStorage struct {
	objects map[string][]byte
}

func (s *memStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

type recordingJobs struct {
	mu     sync.Mutex
	states []model.ImportJobState
}

func (r *recordingJobs) Save(ctx context.Context, state model.ImportJobState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return nil
}

func (r *recordingJobs) last() model.ImportJobState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func workbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Code No"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Asha", "E-001"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestWorker(t *testing.T, store *memStorage, jobs *recordingJobs) (*IngestionWorker, *db.MemoryRepository) {
	t.Helper()

	repo := db.NewMemoryRepository()
	im, err := importer.New(repo, importer.Options{SkipSampleSize: 10})
	require.NoError(t, err)

	return &IngestionWorker{
		storage:    store,
		importer:   im,
		jobs:       jobs,
		workerPool: NewWorkerPool(1),
		log:        logger.Get(),
	}, repo
}

func TestIngestionWorker_ProcessJob(t *testing.T) {
	ctx := context.Background()
	data := workbook(t)
	store := &memStorage{objects: map[string][]byte{"uploads/a/staff.xlsx": data}}
	jobs := &recordingJobs{}
	w, repo := newTestWorker(t, store, jobs)

	job := model.ImportJob{
		ID:         "job-1",
		S3Path:     "uploads/a/staff.xlsx",
		FileName:   "staff.xlsx",
		Checksum:   checksum.SumBytes(data),
		EnqueuedAt: time.Now(),
	}
	require.NoError(t, w.processJob(ctx, job))

	require.Len(t, jobs.states, 2)
	assert.Equal(t, model.JobStatusProcessing, jobs.states[0].Status)
	done := jobs.last()
	assert.Equal(t, model.JobStatusDone, done.Status)
	require.NotNil(t, done.Report)
	assert.Equal(t, 1, done.Report.Inserted)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIngestionWorker_ProcessJobFailures(t *testing.T) {
	ctx := context.Background()
	data := workbook(t)

	t.Run("missing object", func(t *testing.T) {
		jobs := &recordingJobs{}
		w, _ := newTestWorker(t, &memStorage{objects: map[string][]byte{}}, jobs)

		err := w.processJob(ctx, model.ImportJob{ID: "job-2", S3Path: "nope"})
		require.Error(t, err)
		assert.Equal(t, model.JobStatusFailed, jobs.last().Status)
		assert.NotEmpty(t, jobs.last().Error)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		jobs := &recordingJobs{}
		store := &memStorage{objects: map[string][]byte{"k": data}}
		w, repo := newTestWorker(t, store, jobs)

		err := w.processJob(ctx, model.ImportJob{ID: "job-3", S3Path: "k", Checksum: "deadbeef"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestIngestionWorker_HandleMessage(t *testing.T) {
	w, _ := newTestWorker(t, &memStorage{objects: map[string][]byte{}}, &recordingJobs{})

	assert.Error(t, w.handleMessage(context.Background(), []byte("{not json")))
	assert.NoError(t, w.handleMessage(context.Background(), []byte(`{"id":"job-4","s3_path":"k"}`)))
}

func TestIngestionWorker_HandleMessagePoolFull(t *testing.T) {
	jobs := &recordingJobs{}
	w, _ := newTestWorker(t, &memStorage{objects: map[string][]byte{}}, jobs)

	// The pool is never started, so its two buffered slots stay taken.
	require.NoError(t, w.handleMessage(context.Background(), []byte(`{"id":"job-5","s3_path":"k"}`)))
	require.NoError(t, w.handleMessage(context.Background(), []byte(`{"id":"job-6","s3_path":"k"}`)))
	require.Empty(t, jobs.states)

	err := w.handleMessage(context.Background(), []byte(`{"id":"job-7","s3_path":"k","file_name":"staff.xlsx"}`))
	require.ErrorIs(t, err, ErrPoolFull)

	require.Len(t, jobs.states, 1)
	state := jobs.last()
	assert.Equal(t, "job-7", state.JobID)
	assert.Equal(t, model.JobStatusFailed, state.Status)
	assert.Equal(t, "staff.xlsx", state.FileName)
	assert.Equal(t, ErrPoolFull.Error(), state.Error)
}
