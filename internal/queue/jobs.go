package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"github.com/go-redis/redis/v8"
)

// JobStore keeps the latest state of each import job under its own key.
// Entries expire after the configured TTL.
type JobStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewJobStore(redisClient *RedisClient, cfg *config.Config) *JobStore {
	return &JobStore{
		client: redisClient.Client(),
		prefix: cfg.Redis.JobKeyPrefix,
		ttl:    cfg.Redis.JobTTL,
		now:    time.Now,
	}
}

func (s *JobStore) key(jobID string) string {
	return s.prefix + jobID
}

func (s *JobStore) Save(ctx context.Context, state model.ImportJobState) error {
	state.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode job state: %w", err)
	}

	return s.client.Set(ctx, s.key(state.JobID), data, s.ttl).Err()
}

func (s *JobStore) Get(ctx context.Context, jobID string) (*model.ImportJobState, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.ErrJobNotFound
		}
		return nil, err
	}

	var state model.ImportJobState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode job state: %w", err)
	}
	return &state, nil
}
