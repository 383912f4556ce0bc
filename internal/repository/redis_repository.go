package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// DefaultRedisKey is the key holding the slot
const DefaultRedisKey = "imgworkshop:last_image"

// RedisLastImageRepository keeps the slot under one key, with its write time beside it
type RedisLastImageRepository struct {
	client *redis.Client
	key    string
}

// NewRedisLastImageRepository connects to Redis and verifies the connection
func NewRedisLastImageRepository(ctx context.Context, addr string) (*RedisLastImageRepository, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisLastImageRepositoryWithClient(rdb, DefaultRedisKey), nil
}

// NewRedisLastImageRepositoryWithClient wraps an existing client
func NewRedisLastImageRepositoryWithClient(client *redis.Client, key string) *RedisLastImageRepository {
	return &RedisLastImageRepository{client: client, key: key}
}

func (r *RedisLastImageRepository) updatedAtKey() string {
	return r.key + ":updated_at"
}

// Ref returns the slot key
func (r *RedisLastImageRepository) Ref() string {
	return "redis:" + r.key
}

// Save writes the image and its timestamp in one transaction
func (r *RedisLastImageRepository) Save(ctx context.Context, data []byte) (string, error) {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Set(ctx, r.updatedAtKey(), now, 0)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save last image: %w", err)
	}
	return r.Ref(), nil
}

// Load reads the slot key
func (r *RedisLastImageRepository) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(r, ref); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoLastImage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last image: %w", err)
	}
	return data, nil
}

// UpdatedAt reads the companion timestamp key
func (r *RedisLastImageRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	val, err := r.client.Get(ctx, r.updatedAtKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, domain.ErrNoLastImage
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last image time: %w", err)
	}
	return time.Unix(0, val), nil
}

// Delete removes both keys
func (r *RedisLastImageRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key, r.updatedAtKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete last image: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisLastImageRepository) Close() error {
	return r.client.Close()
}
