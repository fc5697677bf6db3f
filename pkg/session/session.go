// Package session maps opaque session ids to the identity of the shopper.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Profile is the identity and delivery address supplied at login.
type Profile struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, p Profile) (string, error)
	Get(ctx context.Context, id string) (Profile, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis under session:<id> with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores p under a fresh id.
func (s *RedisStore) Create(ctx context.Context, p Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, key(id), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Get loads the profile for id.
func (s *RedisStore) Get(ctx context.Context, id string) (Profile, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load session: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode session: %w", err)
	}
	return p, nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}

func key(id string) string {
	return "session:" + id
}
