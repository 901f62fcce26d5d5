package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/jwt"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"go.uber.org/zap"
)

// SessionService binds identities to server-side sessions. The caller holds only
// a signed handle naming the session ID; everything else stays in the store.
type SessionService struct {
	store  SessionStore
	tokens *jwt.TokenManager
	now    func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(store SessionStore, tokens *jwt.TokenManager) *SessionService {
	return &SessionService{
		store:  store,
		tokens: tokens,
		now:    time.Now,
	}
}

// sessionID returns the ID named by a valid handle, or "" for a missing,
// forged or expired one
func (s *SessionService) sessionID(handle string) string {
	if handle == "" {
		return ""
	}
	claims, err := s.tokens.Verify(handle)
	if err != nil {
		logger.Debug("Ignoring session handle", zap.Error(err))
		return ""
	}
	return claims.SessionID()
}

// Issue stores email in the caller's session and returns a fresh handle.
// A caller presenting a valid handle keeps its session ID, so issuing twice
// leaves one session holding the latest email.
func (s *SessionService) Issue(ctx context.Context, handle, email string, role models.Role) (*models.Session, string, error) {
	id := s.sessionID(handle)
	if id == "" {
		id = uuid.NewString()
	}

	now := s.now()
	session := &models.Session{
		ID:        id,
		Email:     email,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	signed, err := s.tokens.Sign(id, now)
	if err != nil {
		return nil, "", err
	}

	return session, signed, nil
}

// Current returns the live session behind handle, or nil.
// A stale session found here is removed.
func (s *SessionService) Current(ctx context.Context, handle string) (*models.Session, error) {
	id := s.sessionID(handle)
	if id == "" {
		return nil, nil
	}

	session, found, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	if session.Expired(s.now()) {
		if _, err := s.store.Delete(ctx, id); err != nil {
			logger.Warn("Failed to remove expired session", zap.String("session_id", id), zap.Error(err))
		}
		return nil, nil
	}

	return session, nil
}

// CurrentIdentity returns the email held by the caller's live session
func (s *SessionService) CurrentIdentity(ctx context.Context, handle string) (string, bool, error) {
	session, err := s.Current(ctx, handle)
	if err != nil || session == nil {
		return "", false, err
	}
	return session.Email, true, nil
}

// Destroy removes the caller's session. Without a live session it returns ErrNotLoggedIn.
func (s *SessionService) Destroy(ctx context.Context, handle string) error {
	session, err := s.Current(ctx, handle)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.ErrNotLoggedIn
	}

	existed, err := s.store.Delete(ctx, session.ID)
	if err != nil {
		return err
	}
	if !existed {
		return apperrors.ErrNotLoggedIn
	}

	return nil
}
