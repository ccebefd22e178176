// Package session issues, validates and revokes server-side sessions.
// A session's JWT proves nothing on its own: the store is the source of
// truth, so deleting the stored session revokes the token immediately.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no live session matches the lookup.
var ErrNotFound = errors.New("session not found")

// Session is one authenticated login. Token is the signed JWT handed to
// the client; the server keys the session by ID and by token.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Implementations must treat Remove of an absent
// session as a no-op and must return ErrNotFound from lookups that miss.
type Store interface {
	Store(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	Remove(ctx context.Context, id uuid.UUID) error
	RemoveAllForUser(ctx context.Context, userID uuid.UUID) error
}
