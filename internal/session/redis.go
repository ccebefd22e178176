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

// RedisStore keeps sessions in Redis under three key families:
//
//	session:{sid}        JSON session, TTL = expires_at - now
//	token:{token}        sid, same TTL
//	user:{uid}:sessions  set of sids, pruned by removal operations
//
// Multi-key writes go through MULTI/EXEC so the families never drift.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id uuid.UUID) string { return "session:" + id.String() }

func tokenKey(token string) string { return "token:" + token }

func userKey(userID uuid.UUID) string { return "user:" + userID.String() + ":sessions" }

// Store writes the session under all three key families. A session whose
// expiry has already passed is not written at all.
func (r *RedisStore) Store(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.ID), payload, ttl)
		pipe.Set(ctx, tokenKey(s.Token), s.ID.String(), ttl)
		pipe.SAdd(ctx, userKey(s.UserID), s.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisStore) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	raw, err := r.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token mapping: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse session id %q: %w", raw, err)
	}
	return r.GetByID(ctx, id)
}

// Remove deletes one session from all three key families. Removing a
// session that no longer exists is a no-op.
func (r *RedisStore) Remove(ctx context.Context, id uuid.UUID) error {
	s, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id), tokenKey(s.Token))
		pipe.SRem(ctx, userKey(s.UserID), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// RemoveAllForUser walks the user's session set and deletes every live
// session it references. Sids whose session key already expired are pruned
// along with the set itself.
func (r *RedisStore) RemoveAllForUser(ctx context.Context, userID uuid.UUID) error {
	sids, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, 2*len(sids)+1)
	for _, raw := range sids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		s, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		keys = append(keys, sessionKey(id), tokenKey(s.Token))
	}
	keys = append(keys, userKey(userID))

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove user sessions: %w", err)
	}
	return nil
}
