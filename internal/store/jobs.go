// Package store persists job records in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spotiload/api/internal/model"
)

// ErrJobNotFound is returned when no record exists for a job id.
var ErrJobNotFound = errors.New("job not found")

// Jobs stores job records as JSON blobs with a TTL matching the
// retention window, plus per-user history lists.
type Jobs struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewJobs(client *redis.Client, ttl time.Duration) *Jobs {
	return &Jobs{redis: client, ttl: ttl}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

func historyKey(userID string) string {
	return fmt.Sprintf("user:%s:downloads", userID)
}

// Save writes the full job record back to Redis.
func (s *Jobs) Save(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, s.ttl).Err()
}

// Get loads a job record, returning ErrJobNotFound for expired or
// unknown ids.
func (s *Jobs) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// AppendHistory links a job to a user's download history.
func (s *Jobs) AppendHistory(ctx context.Context, userID, jobID string) error {
	key := historyKey(userID)
	if err := s.redis.RPush(ctx, key, jobID).Err(); err != nil {
		return err
	}
	return s.redis.Expire(ctx, key, s.ttl).Err()
}

// History returns summaries of the user's still-retained jobs. Records
// that have already expired are silently skipped.
func (s *Jobs) History(ctx context.Context, userID string) ([]model.JobSummary, error) {
	ids, err := s.redis.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]model.JobSummary, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, job.Summary())
	}
	return summaries, nil
}
