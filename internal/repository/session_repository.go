package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"go.uber.org/zap"
)

// SessionRepository is a session store backed by the sessions table.
// Sessions survive restarts and are shared between instances.
type SessionRepository struct {
	db Querier
}

func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save creates or overwrites the session with the same ID
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, email, role, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			role = EXCLUDED.role,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`

	start := time.Now()
	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.Email,
		string(session.Role),
		session.IssuedAt,
		session.ExpiresAt,
	)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.RecordDBOperation("saveSession", "error", duration)
		logger.LogAPICall(ctx, "postgres", "saveSession", "error", duration, zap.Error(err))
		return apperrors.StorageError("save session", err)
	}

	metrics.RecordDBOperation("saveSession", "success", duration)
	return nil
}

// Get returns the session with the given ID, or (nil, false) when there is none.
// Expiry is left to the caller.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	query := `
		SELECT id, email, role, issued_at, expires_at
		FROM sessions
		WHERE id = $1
	`

	start := time.Now()
	var session models.Session
	var role string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.Email,
		&role,
		&session.IssuedAt,
		&session.ExpiresAt,
	)
	duration := metrics.MeasureDuration(start)

	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordDBOperation("getSession", "not_found", duration)
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordDBOperation("getSession", "error", duration)
		logger.LogAPICall(ctx, "postgres", "getSession", "error", duration, zap.Error(err))
		return nil, false, apperrors.StorageError("get session", err)
	}

	metrics.RecordDBOperation("getSession", "success", duration)
	session.Role = models.Role(role)
	return &session, true, nil
}

// Delete removes the session and reports whether one existed
func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.RecordDBOperation("deleteSession", "error", duration)
		logger.LogAPICall(ctx, "postgres", "deleteSession", "error", duration, zap.Error(err))
		return false, apperrors.StorageError("delete session", err)
	}

	metrics.RecordDBOperation("deleteSession", "success", duration)
	return tag.RowsAffected() > 0, nil
}

// PurgeExpired deletes every session that expired before now
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.RecordDBOperation("purgeSessions", "error", duration)
		return 0, apperrors.StorageError("purge sessions", err)
	}

	metrics.RecordDBOperation("purgeSessions", "success", duration)
	if n := tag.RowsAffected(); n > 0 {
		logger.Info("Purged expired sessions", zap.Int64("count", n))
	}
	return tag.RowsAffected(), nil
}
