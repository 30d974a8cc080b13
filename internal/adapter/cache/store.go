package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// jsonStore is the JSON-over-Redis plumbing shared by the entity caches.
type jsonStore struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

// load decodes key into dst. A missing key reports false with no error.
func (s *jsonStore) load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.log.Debug("cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		s.log.Error("failed to get from cache", zap.String("key", key), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Error("failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return false, err
	}

	s.log.Debug("cache hit", zap.String("key", key))
	return true, nil
}

// store writes value under every key in one pipeline.
func (s *jsonStore) store(ctx context.Context, value any, keys ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, data, s.ttl)
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to set cache", zap.Strings("keys", keys), zap.Error(err))
		return err
	}

	s.log.Debug("cached value", zap.Strings("keys", keys), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *jsonStore) remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Error("failed to delete from cache", zap.Strings("keys", keys), zap.Error(err))
		return err
	}

	s.log.Debug("deleted from cache", zap.Strings("keys", keys))
	return nil
}
