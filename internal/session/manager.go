package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/metrics"
)

// Manager issues and validates sessions: tokens prove integrity, the store
// decides liveness.
type Manager struct {
	store  Store
	tokens TokenProvider
	ttl    time.Duration
	logger *slog.Logger
}

func NewManager(store Store, tokens TokenProvider, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{store: store, tokens: tokens, ttl: ttl, logger: logger}
}

// Create issues a new session for the user.
func (m *Manager) Create(ctx context.Context, user *identity.User) (*Session, error) {
	return m.issue(ctx, user.ID, user.TenantID)
}

func (m *Manager) issue(ctx context.Context, userID, tenantID uuid.UUID) (*Session, error) {
	id := uuid.New()
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)

	token, err := m.tokens.Generate(userID, tenantID, id, now, expiresAt)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		UserID:    userID,
		TenantID:  tenantID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := m.store.Store(ctx, s); err != nil {
		return nil, err
	}

	metrics.SessionsIssued.Inc()
	return s, nil
}

// Validate checks the token's signature, issuer, audience and expiry, then
// requires a live session in the store. A signature-valid token whose
// session is gone has been revoked.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	s, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.ID != s.ID.String() {
		return nil, ErrInvalidToken
	}
	if s.Expired(time.Now()) {
		if err := m.store.Remove(ctx, s.ID); err != nil {
			m.logger.Warn("failed to remove expired session", "session_id", s.ID, "error", err)
		}
		return nil, ErrNotFound
	}
	return s, nil
}

// Refresh rotates the session: a brand-new session is stored first, then
// the old one is removed. If removal fails the old session dies by TTL;
// the ordering guarantees the user is never left without a session.
func (m *Manager) Refresh(ctx context.Context, id uuid.UUID) (*Session, error) {
	old, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fresh, err := m.issue(ctx, old.UserID, old.TenantID)
	if err != nil {
		return nil, fmt.Errorf("issue replacement session: %w", err)
	}

	if err := m.store.Remove(ctx, old.ID); err != nil {
		m.logger.Warn("failed to remove rotated session", "session_id", old.ID, "error", err)
	} else {
		metrics.SessionsRevoked.Inc()
	}
	return fresh, nil
}

// Remove revokes one session. Removing an absent session is a no-op.
func (m *Manager) Remove(ctx context.Context, id uuid.UUID) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return err
	}
	metrics.SessionsRevoked.Inc()
	return nil
}

// RemoveAllForUser revokes every session belonging to the user.
func (m *Manager) RemoveAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.RemoveAllForUser(ctx, userID)
}
