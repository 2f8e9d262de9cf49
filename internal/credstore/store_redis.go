package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to redisURL ("redis://host:port/db") and pings it.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, ttl), nil
}

func NewRedisStoreWithClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) keyUser(username string) string { return "cred:user:" + normalize(username) }
func (s *RedisStore) keyCurrent() string             { return "cred:current" }

func (s *RedisStore) Save(ctx context.Context, c Credential) error {
	if err := validate(c); err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyUser(c.Username), raw, s.ttl)
	pipe.Set(ctx, s.keyCurrent(), normalize(c.Username), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Load(ctx context.Context, username string) (*Credential, error) {
	raw, err := s.rdb.Get(ctx, s.keyUser(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c Credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Current(ctx context.Context) (*Credential, error) {
	name, err := s.rdb.Get(ctx, s.keyCurrent()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, name)
}

func (s *RedisStore) Delete(ctx context.Context, username string) error {
	name := normalize(username)
	if err := s.rdb.Del(ctx, s.keyUser(name)).Err(); err != nil {
		return err
	}
	cur, err := s.rdb.Get(ctx, s.keyCurrent()).Result()
	if err == nil && cur == name {
		return s.rdb.Del(ctx, s.keyCurrent()).Err()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
