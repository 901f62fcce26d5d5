package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/internal/services"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthService(roster services.RosterLookup) *services.AuthService {
	return services.NewAuthService(services.NewClassifier(defaultMarkers), roster, newSessionService())
}

func TestAuthService_Login_AdministratorSkipsLookup(t *testing.T) {
	roster := new(MockRosterLookup)
	svc := newAuthService(roster)
	ctx := context.Background()

	for _, email := range []string{"admin@uni.gr", "csdp-admin@uni.gr", "sysadmin@csd.uni.gr"} {
		session, handle, err := svc.Login(ctx, "", email)
		require.NoError(t, err)
		assert.Equal(t, email, session.Email)
		assert.Equal(t, models.RoleAdministrator, session.Role)
		assert.NotEmpty(t, handle)
	}

	roster.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, roster.Calls)
}

func TestAuthService_Login_TANotOnRoster(t *testing.T) {
	roster := new(MockRosterLookup)
	svc := newAuthService(roster)
	ctx := context.Background()

	roster.On("Lookup", mock.Anything, models.RoleTeachingAssistant, "csdp123@example.com").
		Return("", false, nil).Once()

	session, handle, err := svc.Login(ctx, "", "csdp123@example.com")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Nil(t, session)
	assert.Empty(t, handle)

	roster.AssertExpectations(t)
}

func TestAuthService_Login_UsesCanonicalRosterEmail(t *testing.T) {
	roster := new(MockRosterLookup)
	svc := newAuthService(roster)
	ctx := context.Background()

	roster.On("Lookup", mock.Anything, models.RoleTeachingAssistant, "csdp123@example.com").
		Return("CSDP123@example.com", true, nil).Once()

	session, handle, err := svc.Login(ctx, "", "csdp123@example.com")
	require.NoError(t, err)
	assert.Equal(t, "CSDP123@example.com", session.Email)

	email, ok, err := svc.CurrentIdentity(ctx, handle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "CSDP123@example.com", email)
}

func TestAuthService_Login_RolesConsultTheirRoster(t *testing.T) {
	tests := []struct {
		email string
		role  models.Role
	}{
		{"csdp1@uni.gr", models.RoleTeachingAssistant},
		{"csd1@uni.gr", models.RoleStudent},
		{"prof@uni.gr", models.RoleTeacher},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			roster := new(MockRosterLookup)
			roster.On("Lookup", mock.Anything, tt.role, tt.email).Return(tt.email, true, nil).Once()

			session, _, err := newAuthService(roster).Login(context.Background(), "", tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.role, session.Role)
			roster.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_StorageErrorIsNotNotFound(t *testing.T) {
	roster := new(MockRosterLookup)
	svc := newAuthService(roster)

	roster.On("Lookup", mock.Anything, models.RoleStudent, "csd1@uni.gr").
		Return("", false, apperrors.StorageError("roster lookup", errors.New("connection reset"))).Once()

	_, _, err := svc.Login(context.Background(), "", "csd1@uni.gr")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))
	assert.False(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAuthService_Login_EmptyEmail(t *testing.T) {
	roster := new(MockRosterLookup)

	_, _, err := newAuthService(roster).Login(context.Background(), "", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, roster.Calls)
}

func TestAuthService_LoginTwiceKeepsOneSession(t *testing.T) {
	roster := new(MockRosterLookup)
	roster.On("Lookup", mock.Anything, models.RoleTeacher, "a@uni.gr").Return("a@uni.gr", true, nil).Once()
	roster.On("Lookup", mock.Anything, models.RoleTeacher, "b@uni.gr").Return("b@uni.gr", true, nil).Once()
	svc := newAuthService(roster)
	ctx := context.Background()

	first, handle, err := svc.Login(ctx, "", "a@uni.gr")
	require.NoError(t, err)
	second, handle, err := svc.Login(ctx, handle, "b@uni.gr")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	email, ok, err := svc.CurrentIdentity(ctx, handle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b@uni.gr", email)
}

func TestAuthService_Logout(t *testing.T) {
	svc := newAuthService(new(MockRosterLookup))
	ctx := context.Background()

	err := svc.Logout(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrNotLoggedIn)

	_, handle, err := svc.Login(ctx, "", "admin@uni.gr")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, handle))

	session, err := svc.Session(ctx, handle)
	require.NoError(t, err)
	assert.Nil(t, session)
}
