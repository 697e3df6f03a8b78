package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"provider-onboarding/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// ==========================
// In-memory store
// ==========================

type codeEntry struct {
	code      string
	attempts  int
	expiresAt time.Time
}

// MemoryStore keeps codes in process memory. Suitable for a single-session
// client and for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	codes map[string]*codeEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]*codeEntry)}
}

func (m *MemoryStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phone] = &codeEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, phone string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.codes[phone]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.codes, phone)
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.code, true, nil
}

func (m *MemoryStore) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, phone)
	return nil
}

func (m *MemoryStore) IncrAttempts(_ context.Context, phone string, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.codes[phone]
	if !ok {
		return 0, nil
	}
	entry.attempts++
	return entry.attempts, nil
}

// ==========================
// Redis store
// ==========================

// RedisStore keeps codes in Redis with the TTL enforced server-side, so
// codes survive an agent restart within their validity window.
type RedisStore struct {
	client *database.RedisClient
}

func NewRedisStore(client *database.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func codeKey(phone string) string     { return fmt.Sprintf("otp:code:%s", phone) }
func attemptsKey(phone string) string { return fmt.Sprintf("otp:attempts:%s", phone) }

func (r *RedisStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, codeKey(phone), code, ttl); err != nil {
		return err
	}
	return r.client.Del(ctx, attemptsKey(phone))
}

func (r *RedisStore) Load(ctx context.Context, phone string) (string, bool, error) {
	code, err := r.client.Get(ctx, codeKey(phone))
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, phone string) error {
	return r.client.Del(ctx, codeKey(phone), attemptsKey(phone))
}

func (r *RedisStore) IncrAttempts(ctx context.Context, phone string, ttl time.Duration) (int, error) {
	rdb := r.client.GetClient()
	n, err := rdb.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = rdb.Expire(ctx, attemptsKey(phone), ttl).Err()
	}
	return int(n), nil
}
