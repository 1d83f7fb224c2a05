package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coursehive/forumcore/pkg/config"
	"github.com/coursehive/forumcore/pkg/logging"
)

// RedisStore implements Store on a Redis server
type RedisStore struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed store
func NewRedis(cfg *config.RedisConfig) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &RedisStore{client: client}, nil
}

// GetObject retrieves all fields of a keyed object
func (s *RedisStore) GetObject(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// GetObjectFields retrieves the named fields of a keyed object. Missing
// fields are omitted from the result.
func (s *RedisStore) GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error) {
	if len(fields) == 0 {
		return map[string]string{}, nil
	}
	values, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(fields))
	for i, v := range values {
		if str, ok := v.(string); ok {
			result[fields[i]] = str
		}
	}
	return result, nil
}

// SetObject sets multiple fields of a keyed object
func (s *RedisStore) SetObject(ctx context.Context, key string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(fields)*2)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return s.client.HSet(ctx, key, args...).Err()
}

// SetObjectField sets a single field of a keyed object
func (s *RedisStore) SetObjectField(ctx context.Context, key, field string, value interface{}) error {
	return s.client.HSet(ctx, key, field, value).Err()
}

// DeleteObjectFields removes fields from a keyed object
func (s *RedisStore) DeleteObjectFields(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.client.HDel(ctx, key, fields...).Err()
}

// IncrObjectField atomically increments a numeric field
func (s *RedisStore) IncrObjectField(ctx context.Context, key, field string, by int64) (int64, error) {
	return s.client.HIncrBy(ctx, key, field, by).Result()
}

// Exists checks whether a key exists
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

// Delete removes keys
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// SortedSetAdd adds a member with a score to a sorted set
func (s *RedisStore) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
}

// SortedSetAddMulti adds one member to several sorted sets, pairing keys
// with scores positionally
func (s *RedisStore) SortedSetAddMulti(ctx context.Context, keys []string, scores []float64, member string) error {
	if len(keys) != len(scores) {
		return fmt.Errorf("keys/scores length mismatch: %d != %d", len(keys), len(scores))
	}
	pipe := s.client.Pipeline()
	for i, key := range keys {
		pipe.ZAdd(ctx, key, &redis.Z{Score: scores[i], Member: member})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SortedSetRemove removes one member from several sorted sets
func (s *RedisStore) SortedSetRemove(ctx context.Context, keys []string, member string) error {
	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.ZRem(ctx, key, member)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SortedSetScore returns a member's score and whether the member exists
func (s *RedisStore) SortedSetScore(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// SortedSetIncrBy atomically increments a member's score
func (s *RedisStore) SortedSetIncrBy(ctx context.Context, key string, by float64, member string) (float64, error) {
	return s.client.ZIncrBy(ctx, key, by, member).Result()
}

// SortedSetRange returns members in ascending score order
func (s *RedisStore) SortedSetRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.client.ZRange(ctx, key, start, stop).Result()
}

// SortedSetCard returns the member count of a sorted set
func (s *RedisStore) SortedSetCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

// SortedSetCount counts members with scores in [min, max]
func (s *RedisStore) SortedSetCount(ctx context.Context, key, min, max string) (int64, error) {
	return s.client.ZCount(ctx, key, min, max).Result()
}

// SetAdd adds members to a plain set
func (s *RedisStore) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SAdd(ctx, key, args...).Err()
}

// SetRemove removes members from a plain set
func (s *RedisStore) SetRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SRem(ctx, key, args...).Err()
}

// SetMembers returns every member of a plain set
func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Health checks Redis health
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
