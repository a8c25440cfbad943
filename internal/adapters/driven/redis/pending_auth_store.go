package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PendingAuthStore = (*PendingAuthStore)(nil)

const (
	// Key prefixes for Redis
	pendingStatePrefix = "pending:state:"
	pendingUserPrefix  = "pending:user:"
)

// PendingAuthStore implements driven.PendingAuthStore using Redis.
// Records use Redis TTL for automatic expiration, so Cleanup is a no-op.
type PendingAuthStore struct {
	client *redis.Client
}

// NewPendingAuthStore creates a new Redis-backed PendingAuthStore
func NewPendingAuthStore(client *redis.Client) *PendingAuthStore {
	return &PendingAuthStore{client: client}
}

func pendingUserKey(service, userID string) string {
	return pendingUserPrefix + service + ":" + userID
}

// Save stores a pending authorization with TTL based on ExpiresAt,
// replacing any previous flow for the same (service, user).
func (s *PendingAuthStore) Save(ctx context.Context, pending *driven.PendingAuth) error {
	ttl := time.Until(pending.ExpiresAt)
	if ttl <= 0 {
		// Already expired, don't save
		return nil
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending authorization: %w", err)
	}

	// Drop a superseded flow's state key so it can't complete later.
	userKey := pendingUserKey(pending.Service, pending.UserID)
	oldState, err := s.client.Get(ctx, userKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to check pending authorization: %w", err)
	}

	pipe := s.client.Pipeline()
	if oldState != "" && oldState != pending.State {
		pipe.Del(ctx, pendingStatePrefix+oldState)
	}
	pipe.Set(ctx, pendingStatePrefix+pending.State, data, ttl)
	pipe.Set(ctx, userKey, pending.State, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save pending authorization: %w", err)
	}
	return nil
}

// GetAndDelete consumes the record for a state. The record is read first so
// a state belonging to a different service is left untouched; the DEL count
// keeps the single-use guarantee against a concurrent consumer.
func (s *PendingAuthStore) GetAndDelete(ctx context.Context, service, state string) (*driven.PendingAuth, error) {
	data, err := s.client.Get(ctx, pendingStatePrefix+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending authorization: %w", err)
	}

	var pending driven.PendingAuth
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending authorization: %w", err)
	}
	if pending.Service != service {
		return nil, nil
	}

	deleted, err := s.client.Del(ctx, pendingStatePrefix+state).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending authorization: %w", err)
	}
	if deleted == 0 {
		return nil, nil
	}
	s.client.Del(ctx, pendingUserKey(pending.Service, pending.UserID))

	if pending.Expired() {
		return nil, nil
	}
	return &pending, nil
}

// GetByUser returns the live pending authorization for (service, user).
func (s *PendingAuthStore) GetByUser(ctx context.Context, service, userID string) (*driven.PendingAuth, error) {
	state, err := s.client.Get(ctx, pendingUserKey(service, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending authorization: %w", err)
	}

	data, err := s.client.Get(ctx, pendingStatePrefix+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending authorization: %w", err)
	}

	var pending driven.PendingAuth
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending authorization: %w", err)
	}
	if pending.Expired() {
		return nil, nil
	}
	return &pending, nil
}

// Delete removes the pending authorization for (service, user), if any.
func (s *PendingAuthStore) Delete(ctx context.Context, service, userID string) error {
	userKey := pendingUserKey(service, userID)
	state, err := s.client.Get(ctx, userKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete pending authorization: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, pendingStatePrefix+state)
	pipe.Del(ctx, userKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete pending authorization: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Redis TTL expires records natively.
func (s *PendingAuthStore) Cleanup(ctx context.Context) error {
	return nil
}
