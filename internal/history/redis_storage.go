package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// RedisStorage provides Redis-backed persistence for evaluation history.
// Each series is a sorted set scored by iteration.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // Expiry of a series after its last write, 0 = keep
}

// NewRedisStorage creates a new Redis storage backend.
// Returns error if connection fails.
func NewRedisStorage(url, prefix string, ttl time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisStorageWithClient(client, prefix, ttl), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "evalkit:history:"
	}
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (rs *RedisStorage) key(run, dataset, metric string) string {
	return fmt.Sprintf("%s%s:%s:%s", rs.prefix, run, dataset, metric)
}

// Save writes rec, replacing any record at the same iteration.
func (rs *RedisStorage) Save(ctx context.Context, rec Record) error {
	key := rs.key(rec.Run, rec.Dataset, rec.Result.Name)
	score := fmt.Sprintf("%d", rec.Iteration)

	member, err := json.Marshal(rec)
	if err != nil {
		return errors.StorageError("encoding record", err)
	}

	// Use pipeline for atomic operation
	pipe := rs.client.TxPipeline()

	// Drop a previous record for this iteration
	pipe.ZRemRangeByScore(ctx, key, score, score)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(rec.Iteration),
		Member: member,
	})
	if rs.ttl > 0 {
		pipe.Expire(ctx, key, rs.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.StorageError("saving record", err)
	}

	return nil
}

// Load returns the series ordered by iteration.
func (rs *RedisStorage) Load(ctx context.Context, run, dataset, metric string) ([]Record, error) {
	members, err := rs.client.ZRangeByScore(ctx, rs.key(run, dataset, metric), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, errors.StorageError("loading history", err)
	}

	records := make([]Record, 0, len(members))
	for _, m := range members {
		var rec Record
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			// Skip invalid entries
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteRun deletes every series of run.
func (rs *RedisStorage) DeleteRun(ctx context.Context, run string) error {
	if err := ValidateName("run", run); err != nil {
		return err
	}

	iter := rs.client.Scan(ctx, 0, rs.prefix+run+":*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.StorageError("scanning run keys", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return errors.StorageError("deleting run", err)
	}
	return nil
}

// Close closes the Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
