package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Store holds the token cache keyed by opaque session ID. Save overwrites
// any previous token for the session, which is how refresh replaces the
// credential in place.
type Store interface {
	Save(ctx context.Context, sessionID string, token Token) error
	Get(ctx context.Context, sessionID string) (Token, error)
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, token Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Token, error) {
	payload, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("load session: %w", err)
	}

	var token Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return Token{}, fmt.Errorf("unmarshal token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// MemoryStore is a map-backed Store for tests and single-node development.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryEntry
	ttl    time.Duration
}

type memoryEntry struct {
	token     Token
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]memoryEntry),
		ttl:    ttl,
	}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = memoryEntry{
		token:     token,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Token, error) {
	s.mu.RLock()
	entry, ok := s.tokens[sessionID]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return Token{}, ErrNotFound
	}
	return entry.token, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	count := 0
	for _, entry := range s.tokens {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}
