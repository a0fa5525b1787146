package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "kb:prefs:"
	redisThemeField = "theme"
)

// RedisConfig holds the connection settings of a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Profile separates users sharing one Redis.
	Profile string
}

// RedisStore keeps preferences in a Redis hash, one per profile.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.Profile), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, key: redisKeyPrefix + profile}
}

// Key returns the hash holding this profile's preferences.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Theme(ctx context.Context) (Theme, bool, error) {
	val, err := s.client.HGet(ctx, s.key, redisThemeField).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read theme from redis: %w", err)
	}
	theme, err := ParseTheme(val)
	if err != nil {
		return "", false, nil
	}
	return theme, true, nil
}

func (s *RedisStore) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, redisThemeField, string(theme)).Err(); err != nil {
		return fmt.Errorf("save theme to redis: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
