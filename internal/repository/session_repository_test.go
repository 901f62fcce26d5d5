package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Save(t *testing.T) {
	db := new(mockQuerier)
	repo := NewSessionRepository(db)

	issued := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	session := &models.Session{
		ID:        "sid-1",
		Email:     "csd1234@uni.gr",
		Role:      models.RoleStudent,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Hour),
	}

	db.On("Exec", mock.Anything, mock.Anything, []any{"sid-1", "csd1234@uni.gr", "student", issued, issued.Add(time.Hour)}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	require.NoError(t, repo.Save(context.Background(), session))
	db.AssertExpectations(t)
}

func TestSessionRepository_Get(t *testing.T) {
	db := new(mockQuerier)
	repo := NewSessionRepository(db)

	issued := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"sid-1"}).
		Return(fakeRow{values: []any{"sid-1", "t@uni.gr", "teacher", issued, issued.Add(time.Hour)}}).Once()

	session, found, err := repo.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "t@uni.gr", session.Email)
	assert.Equal(t, models.RoleTeacher, session.Role)
	assert.Equal(t, issued.Add(time.Hour), session.ExpiresAt)
}

func TestSessionRepository_Get_Missing(t *testing.T) {
	db := new(mockQuerier)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow{err: pgx.ErrNoRows}).Once()

	session, found, err := NewSessionRepository(db).Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, session)
}

func TestSessionRepository_Get_StorageError(t *testing.T) {
	db := new(mockQuerier)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow{err: errors.New("timeout")}).Once()

	_, _, err := NewSessionRepository(db).Get(context.Background(), "sid")
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))
}

func TestSessionRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		existed bool
	}{
		{"existing session", "DELETE 1", true},
		{"no session", "DELETE 0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(mockQuerier)
			db.On("Exec", mock.Anything, `DELETE FROM sessions WHERE id = $1`, []any{"sid"}).
				Return(pgconn.NewCommandTag(tt.tag), nil).Once()

			existed, err := NewSessionRepository(db).Delete(context.Background(), "sid")
			require.NoError(t, err)
			assert.Equal(t, tt.existed, existed)
		})
	}
}

func TestSessionRepository_PurgeExpired(t *testing.T) {
	db := new(mockQuerier)
	now := time.Now()
	db.On("Exec", mock.Anything, `DELETE FROM sessions WHERE expires_at <= $1`, []any{now}).
		Return(pgconn.NewCommandTag("DELETE 3"), nil).Once()

	n, err := NewSessionRepository(db).PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
