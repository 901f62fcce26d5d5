package services

import (
	"context"
	"time"

	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"github.com/rendezvous-csd/rendezvous-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AuthService resolves identity claims and manages the resulting sessions
type AuthService struct {
	classifier *Classifier
	roster     RosterLookup
	sessions   *SessionService
}

// NewAuthService creates a new AuthService
func NewAuthService(classifier *Classifier, roster RosterLookup, sessions *SessionService) *AuthService {
	return &AuthService{
		classifier: classifier,
		roster:     roster,
		sessions:   sessions,
	}
}

// Login classifies email, checks the matching roster and issues a session.
// Administrator claims are trusted without a lookup. The session holds the
// roster's stored email, which may differ from the claim.
func (s *AuthService) Login(ctx context.Context, handle, email string) (*models.Session, string, error) {
	start := time.Now()

	classification, err := s.classifier.Classify(email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("none", "invalid").Inc()
		return nil, "", err
	}
	role := string(classification.Role)

	ctx, span := tracing.StartSpan(ctx, "auth.login", attribute.String("auth.role", role))
	defer span.End()

	resolved := classification.Email
	if classification.RequiresLookup() {
		canonical, found, err := s.roster.Lookup(ctx, classification.Role, classification.Email)
		if err != nil {
			span.RecordError(err)
			metrics.LoginAttempts.WithLabelValues(role, "error").Inc()
			logger.Error("Roster lookup failed", zap.String("role", role), zap.Error(err))
			return nil, "", err
		}
		if !found {
			metrics.LoginAttempts.WithLabelValues(role, "not_found").Inc()
			logger.Warn("Login for email not on roster", zap.String("role", role), zap.String("email", email))
			return nil, "", apperrors.NotFoundError(classification.Role.Table() + " entry")
		}
		resolved = canonical
	}

	session, signed, err := s.sessions.Issue(ctx, handle, resolved, classification.Role)
	if err != nil {
		span.RecordError(err)
		metrics.LoginAttempts.WithLabelValues(role, "error").Inc()
		logger.Error("Failed to issue session", zap.String("role", role), zap.Error(err))
		return nil, "", err
	}

	metrics.LoginAttempts.WithLabelValues(role, "success").Inc()
	logger.Info("User logged in",
		zap.String("role", role),
		zap.String("email", session.Email),
		zap.Duration("duration", time.Since(start)))

	return session, signed, nil
}

// CurrentIdentity returns the email of the caller's live session
func (s *AuthService) CurrentIdentity(ctx context.Context, handle string) (string, bool, error) {
	return s.sessions.CurrentIdentity(ctx, handle)
}

// Session returns the caller's live session, or nil
func (s *AuthService) Session(ctx context.Context, handle string) (*models.Session, error) {
	return s.sessions.Current(ctx, handle)
}

// Logout destroys the caller's session
func (s *AuthService) Logout(ctx context.Context, handle string) error {
	err := s.sessions.Destroy(ctx, handle)
	switch {
	case err == nil:
		metrics.Logouts.WithLabelValues("success").Inc()
	case apperrors.Is(err, apperrors.ErrNotLoggedIn):
		metrics.Logouts.WithLabelValues("not_logged_in").Inc()
	default:
		metrics.Logouts.WithLabelValues("error").Inc()
		logger.Error("Failed to destroy session", zap.Error(err))
	}
	return err
}
