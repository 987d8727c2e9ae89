package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// recentKey is the Redis list holding the newest exchanges, newest first.
const recentKey = "coach:recent"

// Recent holds the last few exchanges for prompt context.
type Recent interface {
	// Add prepends an exchange, evicting the oldest past the cap.
	Add(ctx context.Context, ex Exchange) error

	// List returns the stored exchanges, newest first.
	List(ctx context.Context) ([]Exchange, error)

	// Close releases resources.
	Close() error
}

// RedisRecent keeps recent context in a capped Redis list.
type RedisRecent struct {
	client *redis.Client
	max    int64
}

// NewRedisRecent connects to Redis and verifies the connection.
func NewRedisRecent(ctx context.Context, addr, password string, db, max int) (*RedisRecent, error) {
	if max <= 0 {
		max = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRecent{client: client, max: int64(max)}, nil
}

// Add prepends an exchange and trims the list to the cap.
func (r *RedisRecent) Add(ctx context.Context, ex Exchange) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, r.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push exchange: %w", err)
	}
	return nil
}

// List returns the stored exchanges, newest first.
func (r *RedisRecent) List(ctx context.Context) ([]Exchange, error) {
	values, err := r.client.LRange(ctx, recentKey, 0, r.max-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent: %w", err)
	}

	list := make([]Exchange, 0, len(values))
	for _, v := range values {
		var ex Exchange
		if err := json.Unmarshal([]byte(v), &ex); err != nil {
			continue // skip entries written by other versions
		}
		list = append(list, ex)
	}
	return list, nil
}

// Close releases the Redis connection.
func (r *RedisRecent) Close() error {
	return r.client.Close()
}

// NoopRecent is the fallback when Redis is not configured.
// Add discards, List is always empty.
type NoopRecent struct{}

func (NoopRecent) Add(ctx context.Context, ex Exchange) error   { return nil }
func (NoopRecent) List(ctx context.Context) ([]Exchange, error) { return nil, nil }
func (NoopRecent) Close() error                                 { return nil }

// Verify implementations at compile time.
var (
	_ Recent = (*RedisRecent)(nil)
	_ Recent = NoopRecent{}
)
