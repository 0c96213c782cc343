package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Address  string `envconfig:"ADDRESS" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// RedisStore persists conversations in Redis over the native protocol.
type RedisStore struct {
	client redis.UniversalClient
	opts   storeOptions
}

// NewRedisStore dials Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts...)
}

func NewRedisStoreWithClient(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, opts: o}, nil
}

func (s *RedisStore) Load(ctx context.Context, threadID string) (*Conversation, error) {
	key, err := storeKey(s.opts.keyPrefix, threadID)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeConversation(raw)
}

func (s *RedisStore) Save(ctx context.Context, conv *Conversation) error {
	if err := prepareForSave(conv, s.opts.maxMessages, s.opts.now()); err != nil {
		return err
	}
	key, err := storeKey(s.opts.keyPrefix, conv.ThreadID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	var expiration time.Duration
	if s.opts.ttl > 0 {
		expiration = time.Duration(ttlSeconds(s.opts.ttl)) * time.Second
	}
	if err := s.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	key, err := storeKey(s.opts.keyPrefix, threadID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
