package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const runUpdateRetries = 5

// RedisRunStore keeps practice runs as JSON in Redis. Updates run under
// WATCH so concurrent intents on one run never interleave.
type RedisRunStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRunStore creates a run store whose entries expire ttl after
// their last write.
func NewRedisRunStore(rdb *redis.Client, ttl time.Duration) *RedisRunStore {
	return &RedisRunStore{rdb: rdb, ttl: ttl}
}

// Create stores a new run.
func (s *RedisRunStore) Create(ctx context.Context, run *PracticeRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, config.CacheKey.PracticeRunKey(run.ID.String()), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	if !ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	return nil
}

// Get loads a run.
func (s *RedisRunStore) Get(ctx context.Context, id uuid.UUID) (*PracticeRun, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.PracticeRunKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("load run: %w", err)
	}
	return decodeRun(data)
}

// Update applies fn to the stored run in an optimistic transaction,
// retrying when another writer got there first.
func (s *RedisRunStore) Update(ctx context.Context, id uuid.UUID, fn func(*PracticeRun) error) (*PracticeRun, error) {
	key := config.CacheKey.PracticeRunKey(id.String())

	var result *PracticeRun
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrRunNotFound
			}
			return err
		}
		run, err := decodeRun(data)
		if err != nil {
			return err
		}
		if err := fn(run); err != nil {
			return err
		}
		out, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err == nil {
			result = run
		}
		return err
	}

	for i := 0; i < runUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, ErrRunBusy
}

// Delete removes a run.
func (s *RedisRunStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.PracticeRunKey(id.String())).Err()
}

func decodeRun(data []byte) (*PracticeRun, error) {
	var run PracticeRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}
