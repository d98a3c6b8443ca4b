package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Storage is the key-value persistence collaborator for session state. An
// absent key is not an error; callers treat it as "no session".
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage is an in-process Storage, used for tests and single-node
// deployments.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// Get implements Storage.
func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements Storage.
func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete implements Storage.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// RedisStorage persists session state in Redis so sessions survive process
// restarts and are shared across instances. Keys expire server-side as a
// backstop; the store still enforces TTL itself.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
	expiry    time.Duration
}

// NewRedisStorage creates a Redis-backed storage. expiry bounds how long
// Redis keeps a key regardless of session bookkeeping; zero means no
// server-side expiry.
func NewRedisStorage(client *redis.Client, keyPrefix string, expiry time.Duration) *RedisStorage {
	return &RedisStorage{client: client, keyPrefix: keyPrefix, expiry: expiry}
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set implements Storage.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.keyPrefix+key, value, s.expiry).Err()
}

// Delete implements Storage.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}
