// Package redisstore provides a Redis-backed persisted local store. Several
// console processes pointed at the same Redis share one signed-in state.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Store = (*Store)(nil)

const defaultPrefix = "console:local:"

type Store struct {
	client *redis.Client
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces all keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New wraps an existing client.
func New(client *redis.Client, options ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url string, options ...Option) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, options...), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) SetItem(ctx context.Context, key string, value any) error {
	b, err := storage.Encode(key, value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), b, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q in redis: %w", key, err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %q from redis: %w", key, err)
	}
	return true, storage.Decode(key, data, out)
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q from redis: %w", key, err)
	}
	return nil
}
